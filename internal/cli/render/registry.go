package render

import (
	"fmt"
	"io"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// RegistryRenderer renders the executor, admin and proxy registries
type RegistryRenderer struct {
	out io.Writer
	now time.Time
}

// NewRegistryRenderer creates a new registry renderer
func NewRegistryRenderer(out io.Writer, now time.Time) *RegistryRenderer {
	return &RegistryRenderer{out: out, now: now}
}

// RenderExecutors renders the executor allow-list
func (r *RegistryRenderer) RenderExecutors(s *usecase.ExecutorStatus) error {
	if s.Frozen {
		fmt.Fprintln(r.out, FormatWarning("Executions are frozen by emergency"))
	}
	if !s.CooldownEnds.IsZero() && r.now.Before(s.CooldownEnds) {
		fmt.Fprintf(r.out, "List changes locked until %s (%s)\n", Timestamp(s.CooldownEnds), Until(r.now, s.CooldownEnds))
	}
	if len(s.Executors) == 0 {
		fmt.Fprintln(r.out, "No executors registered")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"Executor", "Status", "Used today", "Total", "Added"})
	for _, e := range s.Executors {
		status := okStyle.Sprint("enabled")
		if !e.Enabled {
			status = mutedStyle.Sprint("removed")
		}
		used := e.DailyUsage
		if !r.now.Before(e.LastReset.Add(24 * time.Hour)) {
			used = 0
		}
		t.AppendRow([]interface{}{
			e.Address.Hex(),
			status,
			fmt.Sprintf("%d/%d", used, s.DailyLimit),
			e.TotalRuns,
			Timestamp(e.AddedAt),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderAdmins renders the authorized proxy admins
func (r *RegistryRenderer) RenderAdmins(admins []*models.AuthorizedAdmin) error {
	if len(admins) == 0 {
		fmt.Fprintln(r.out, "No proxy admins registered")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"Admin", "Name", "Owner", "Status", "Registered"})
	for _, a := range admins {
		status := okStyle.Sprint("active")
		if !a.Active {
			status = badStyle.Sprint("revoked")
		}
		t.AppendRow([]interface{}{a.Address.Hex(), a.Name, Short(a.Owner), status, Timestamp(a.RegisteredAt)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderValidation renders the result of checking a proxy's admin
func (r *RegistryRenderer) RenderValidation(v *usecase.ProxyValidation) error {
	fmt.Fprintln(r.out, field("Proxy", v.Proxy.Hex()))
	fmt.Fprintln(r.out, field("Implementation", v.Implementation.Hex()))
	fmt.Fprintln(r.out, field("Admin", v.Admin.Hex()))
	if v.Registered != nil {
		fmt.Fprintln(r.out, field("Registered as", v.Registered.Name))
	}
	if v.Valid {
		fmt.Fprintln(r.out, FormatSuccess("Proxy admin is authorized"))
	} else {
		fmt.Fprintln(r.out, FormatError("proxy admin is not authorized"))
	}
	return nil
}

// RenderProxies renders the proxy registry
func (r *RegistryRenderer) RenderProxies(proxies []*models.ProxyInfo) error {
	if len(proxies) == 0 {
		fmt.Fprintln(r.out, "No proxies registered")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"Proxy", "Type", "Implementation", "Admin", "Upgrades"})
	for _, p := range proxies {
		t.AppendRow([]interface{}{p.Address.Hex(), p.Type, p.Implementation.Hex(), Short(p.Admin), len(p.History)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderProxy renders one proxy and its upgrade history
func (r *RegistryRenderer) RenderProxy(p *models.ProxyInfo) error {
	headerStyle.Fprintf(r.out, "Proxy %s\n", p.Address.Hex())
	fmt.Fprintln(r.out, field("Type", p.Type))
	fmt.Fprintln(r.out, field("Implementation", p.Implementation.Hex()))
	fmt.Fprintln(r.out, field("Admin", p.Admin.Hex()))
	if len(p.History) > 0 {
		sectionStyle.Fprintln(r.out, "\nHistory:")
		for _, h := range p.History {
			fmt.Fprintf(r.out, "  %s  %s → %s\n", timestampStyle.Sprint(Timestamp(h.UpgradedAt)), Short(h.From), Short(h.To))
		}
	}
	return nil
}

// RenderCouncil renders the security council
func (r *RegistryRenderer) RenderCouncil(members []usecase.CouncilMember) error {
	if len(members) == 0 {
		fmt.Fprintln(r.out, "Security council is empty")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"Member", "Since"})
	for _, m := range members {
		t.AppendRow([]interface{}{m.Address.Hex(), Timestamp(m.Since)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderOperations renders timelock operations
func (r *RegistryRenderer) RenderOperations(ops []*models.TimelockOperation) error {
	if len(ops) == 0 {
		fmt.Fprintln(r.out, "No timelock operations")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"ID", "Calls", "State", "Ready", "Scheduled by"})
	for _, op := range ops {
		state := op.StateAt(r.now)
		style := mutedStyle
		switch state {
		case models.OperationStateReady:
			style = okStyle
		case models.OperationStateWaiting:
			style = pendingStyle
		case models.OperationStateCanceled, models.OperationStateExpired:
			style = badStyle
		}
		t.AppendRow([]interface{}{
			ShortHash(op.ID),
			len(op.Calls),
			style.Sprint(string(state)),
			Until(r.now, op.Timestamp),
			Short(op.ScheduledBy),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
