package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// MintRequestView pairs a mint request with its derived status
type MintRequestView struct {
	*models.MintRequest
	Status       models.MintRequestStatus `json:"status"`
	ExecutableAt time.Time                `json:"executableAt"`
	ExpiresAt    time.Time                `json:"expiresAt"`
}

// MintRenderer renders the issuance schedule and its requests
type MintRenderer struct {
	out io.Writer
	now time.Time
}

// NewMintRenderer creates a new mint renderer
func NewMintRenderer(out io.Writer, now time.Time) *MintRenderer {
	return &MintRenderer{out: out, now: now}
}

func mintStatusColor(s models.MintRequestStatus) *color.Color {
	switch s {
	case models.MintRequestStatusExecutable, models.MintRequestStatusExecuted:
		return okStyle
	case models.MintRequestStatusPending:
		return pendingStyle
	default:
		return badStyle
	}
}

// RenderRequests renders mint requests as a table
func (r *MintRenderer) RenderRequests(requests []*MintRequestView) error {
	if len(requests) == 0 {
		fmt.Fprintln(r.out, "No mint requests found")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"ID", "Period", "Recipient", "Amount", "Status", "Executable", "Purpose"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	for _, req := range requests {
		t.AppendRow([]interface{}{
			req.ID,
			req.Period,
			req.Recipient.Hex(),
			amountStyle.Sprint(Tokens(req.Amount)),
			mintStatusColor(req.Status).Sprint(string(req.Status)),
			Until(r.now, req.ExecutableAt),
			truncate(req.Purpose, 32),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderRequest renders one mint request in detail
func (r *MintRenderer) RenderRequest(req *MintRequestView) error {
	headerStyle.Fprintf(r.out, "Mint request #%d\n", req.ID)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))
	fmt.Fprintln(r.out, field("Recipient", req.Recipient.Hex()))
	fmt.Fprintln(r.out, field("Amount", amountStyle.Sprint(Tokens(req.Amount))))
	fmt.Fprintln(r.out, field("Purpose", req.Purpose))
	fmt.Fprintln(r.out, field("Period", req.Period))
	fmt.Fprintln(r.out, field("Status", mintStatusColor(req.Status).Sprint(string(req.Status))))
	fmt.Fprintln(r.out, field("Requested by", req.RequestedBy.Hex()))
	fmt.Fprintln(r.out, field("Approved", Timestamp(req.ApprovedAt)))
	fmt.Fprintln(r.out, field("Executable", fmt.Sprintf("%s (%s)", Timestamp(req.ExecutableAt), Until(r.now, req.ExecutableAt))))
	fmt.Fprintln(r.out, field("Expires", fmt.Sprintf("%s (%s)", Timestamp(req.ExpiresAt), Until(r.now, req.ExpiresAt))))
	if req.OracleRequestID != "" {
		fmt.Fprintln(r.out, field("Oracle request", req.OracleRequestID))
	}
	if req.ExecutedAt != nil {
		fmt.Fprintln(r.out, field("Executed", Timestamp(*req.ExecutedAt)))
	}
	if req.CanceledAt != nil {
		fmt.Fprintln(r.out, field("Canceled", Timestamp(*req.CanceledAt)))
	}
	return nil
}

// RenderSchedule renders every period of the issuance schedule
func (r *MintRenderer) RenderSchedule(periods []*models.PeriodSummary, current uint64) error {
	t := newTable()
	t.AppendHeader([]interface{}{"", "Period", "Phase", "Start", "Cap", "Minted", "Pending", "Remaining"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, p := range periods {
		marker := ""
		if p.Period == current {
			marker = okStyle.Sprint("▶")
		}
		t.AppendRow([]interface{}{
			marker,
			p.Period,
			p.Phase,
			p.Start.Format("2006-01-02"),
			Tokens(p.Cap),
			Tokens(p.Minted),
			Tokens(p.Pending),
			amountStyle.Sprint(Tokens(p.Remaining)),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderSupply renders cumulative issuance
func (r *MintRenderer) RenderSupply(s *usecase.SupplyStatus, current uint64) error {
	sectionStyle.Fprintln(r.out, "Issuance:")
	fmt.Fprintln(r.out, field("Max supply", Tokens(s.MaxSupply)))
	fmt.Fprintln(r.out, field("Ceiling", Tokens(s.MintableCeiling)))
	fmt.Fprintln(r.out, field("Minted", amountStyle.Sprint(Tokens(s.TotalMinted))))
	fmt.Fprintln(r.out, field("Pending", Tokens(s.TotalPending)))
	fmt.Fprintln(r.out, field("Initial alloc.", s.InitialAllocated))
	if current > 0 {
		fmt.Fprintln(r.out, field("Current period", current))
	} else {
		fmt.Fprintln(r.out, field("Current period", mutedStyle.Sprint("outside schedule")))
	}
	return nil
}
