package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/modules"
)

func moduleNames() []string {
	defs := registry.All()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func newListCmd() *cobra.Command {
	var page, limit int
	var sort string

	cmd := &cobra.Command{
		Use:       "list <module>",
		Short:     "List one page of a catalog module",
		Args:      cobra.ExactArgs(1),
		ValidArgs: moduleNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken()
			if err != nil {
				return err
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			if page < 1 {
				return fmt.Errorf("page must be at least 1, got %d", page)
			}
			if limit == 0 {
				limit = def.DefaultPageSize
			}
			if limit != def.DefaultPageSize && !def.AllowsPageSize(limit) {
				return fmt.Errorf("page size %d is not offered by %s", limit, def.Name)
			}
			if !def.AllowsSort(sort) {
				return fmt.Errorf("sort %q is not offered by %s", sort, def.Name)
			}

			result, err := client.List(cmd.Context(), token, def.Collection, backend.ListQuery{Page: page, Limit: limit, Sort: sort})
			if err != nil {
				return err
			}

			output(cmd).Print(renderPage(def, page, limit, result))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (default: the module's page size)")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort key, e.g. title or -title")

	return cmd
}

func renderPage(def *modules.Definition, page, limit int, result *backend.ListResult) ListPage {
	p := ListPage{
		Module: def.Name,
		Page:   page,
		Limit:  limit,
		Total:  result.Total,
		Rows:   make([]ListItem, 0, len(result.Items)),
	}
	for _, c := range def.Columns {
		p.Columns = append(p.Columns, c.Title)
	}
	for _, raw := range result.Items {
		row, err := def.RenderRow(raw)
		if err != nil {
			row = modules.Row{ID: modules.EntityID(raw)}
		}
		p.Rows = append(p.Rows, ListItem{ID: row.ID, Cells: row.Cells})
	}
	return p
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <module> <id>",
		Short: "Show one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken()
			if err != nil {
				return err
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			raw, err := client.GetOne(cmd.Context(), token, def.Collection, def.Singular, args[1])
			if err != nil {
				return err
			}

			output(cmd).Print(raw)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <module> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken()
			if err != nil {
				return err
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			id := args[1]

			if !yes && !confirm(cmd, fmt.Sprintf("Delete %s %s? [y/N] ", def.Singular, id)) {
				output(cmd).PrintMessage("Aborted")
				return nil
			}

			if err := client.Remove(cmd.Context(), token, def.Collection, id); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Deleted %s %s", def.Singular, id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
