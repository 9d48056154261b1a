package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ovmscope/internal/config"
	"ovmscope/internal/errs"
	"ovmscope/internal/model"
)

var (
	headerStyle   = color.New(color.Bold)
	addressStyle  = color.New(color.FgWhite)
	implicitStyle = color.New(color.FgYellow)
	okStyle       = color.New(color.FgGreen)
	notOKStyle    = color.New(color.FgRed)
	faintStyle    = color.New(color.Faint)
)

func render(cmd *cobra.Command, format string, v interface{}) error {
	w := cmd.OutOrStdout()
	if format == config.FormatTable {
		if ok := renderTable(w, v); ok {
			return nil
		}
	}
	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type errorOutput struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w io.Writer, err error) {
	_ = writeJSON(w, errorOutput{Error: err.Error(), Kind: errs.KindOf(err).String()})
}

// renderTable prints v as tables and reports false for types with no table form.
func renderTable(w io.Writer, v interface{}) bool {
	switch out := v.(type) {
	case queryResult:
		renderQuery(w, out)
	case listResult:
		renderList(w, out)
	case rolesResult:
		fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint("Roles of"), out.Address)
		fmt.Fprintln(w, rolesTable(out.Roles))
	case model.State:
		fmt.Fprintln(w, stateTable(out))
	case model.TxPlan:
		renderTxPlan(w, out)
	case []config.Network:
		fmt.Fprintln(w, networksTable(out))
	case []model.LogRecord:
		fmt.Fprintln(w, eventsTable(out))
	default:
		return false
	}
	return true
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func renderQuery(w io.Writer, q queryResult) {
	if !q.IsOVM {
		fmt.Fprintf(w, "%s %s\n", notOKStyle.Sprint("not an OVM:"), q.Address)
		return
	}
	block := "unknown"
	if q.DeployedAtBlock != nil {
		block = fmt.Sprintf("%d", *q.DeployedAtBlock)
	}
	fmt.Fprintf(w, "%s %s (%s, block %s)\n", okStyle.Sprint("OVM"), q.Address, q.Network, block)
	if q.State != nil {
		fmt.Fprintln(w, stateTable(*q.State))
	}
	fmt.Fprintln(w, rolesTable(q.Roles))
	fmt.Fprintln(w, faintStyle.Sprint(q.LaunchpadURL))
}

func renderList(w io.Writer, l listResult) {
	fmt.Fprintf(w, "%s %s: %d\n", headerStyle.Sprint("OVMs on"), l.Network, l.TotalOVMs)
	t := newTable()
	t.AppendHeader(table.Row{"Address", "Owner", "Block", "Launchpad"})
	for _, d := range l.OVMs {
		t.AppendRow(table.Row{addressStyle.Sprint(d.Address), d.Owner, d.BlockNumber, d.LaunchpadURL})
	}
	fmt.Fprintln(w, t.Render())
}

func rolesTable(records []model.RoleRecord) string {
	t := newTable()
	t.AppendHeader(table.Row{"Address", "Roles", "Value"})
	for _, r := range records {
		address := addressStyle.Sprint(r.Address)
		if r.Implicit {
			address += " " + implicitStyle.Sprint("(owner)")
		}
		names := strings.Join(r.Roles.Names(), ", ")
		if names == "" {
			names = faintStyle.Sprint("none")
		}
		value := "0"
		if r.RolesValue != nil {
			value = r.RolesValue.String()
		}
		t.AppendRow(table.Row{address, names, value})
	}
	return t.Render()
}

func stateTable(s model.State) string {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Owner", s.Owner},
		{"Principal recipient", s.PrincipalRecipient},
		{"Reward recipient", s.RewardRecipient},
		{"Principal threshold", s.PrincipalThreshold},
		{"Funds pending withdrawal", s.FundsPendingWithdrawal},
		{"Principal stake", s.AmountOfPrincipalStake},
		{"Balance", s.Balance},
		{"Version", s.Version},
	})
	return t.Render()
}

func networksTable(networks []config.Network) string {
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Chain ID", "Factory", "Deployment block", "RPC"})
	for _, n := range networks {
		t.AppendRow(table.Row{n.Name, n.ChainID, n.FactoryAddress.Hex(), n.DeploymentBlock, n.RPCURL})
	}
	return t.Render()
}

func renderTxPlan(w io.Writer, p model.TxPlan) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint(p.Operation), p.Description)
	t := newTable()
	t.AppendRows([]table.Row{
		{"Network", p.Network},
		{"To", p.To},
		{"Value (wei)", p.Value},
		{"Data", p.Data},
	})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, headerStyle.Sprint("Cast"))
	fmt.Fprintln(w, p.CastCommand)
	fmt.Fprintln(w, headerStyle.Sprint("MetaMask"))
	fmt.Fprintln(w, p.MetamaskInstructions)
	fmt.Fprintln(w, okStyle.Sprint(p.Message))
}

func eventsTable(records []model.LogRecord) string {
	t := newTable()
	t.AppendHeader(table.Row{"Block", "Tx", "Address", "Event", "Fields"})
	for _, r := range records {
		event := r.Event
		if event == "" && len(r.Topics) > 0 {
			event = faintStyle.Sprint(r.Topics[0])
		}
		fields := make([]string, 0, len(r.Fields))
		for k, v := range r.Fields {
			fields = append(fields, k+"="+v)
		}
		sort.Strings(fields)
		t.AppendRow(table.Row{r.BlockNumber, r.TxHash, addressStyle.Sprint(r.Address), event, strings.Join(fields, "\n")})
	}
	return t.Render()
}
