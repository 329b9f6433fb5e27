package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/pkg/errors"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the reaction catalog",
	}
	cmd.AddCommand(newCatalogListCmd(), newCatalogValidateCmd())
	return cmd
}

// loadCatalog reads the configured catalog without opening the telemetry
// store.
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return catalog.Load(cc.Config.Catalog.Path, catalog.WithLogger(cc.Logger.Named("catalog")))
}

type entryList []catalog.Entry

func (l entryList) TableHeaders() []string {
	return []string{"ID", "CATEGORY", "NAME", "DIFFICULTY"}
}

func (l entryList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.ID, e.Category, e.Name, strconv.Itoa(int(e.Difficulty))})
	}
	return rows
}

func newCatalogListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog reactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			return PrintResult(cmd, entryList(c.List(category)))
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

type issueList []catalog.Issue

func (l issueList) TableHeaders() []string { return []string{"ID", "ERROR"} }

func (l issueList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, i := range l {
		rows = append(rows, []string{i.ID, i.Error})
	}
	return rows
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse every catalog template and report the ones that fail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			issues := c.Validate()
			if len(issues) == 0 {
				PrintSuccess(cmd, fmt.Sprintf("%d templates from %s parse cleanly", c.Len(), c.Source()))
				return nil
			}
			if err := PrintResult(cmd, issueList(issues)); err != nil {
				return err
			}
			return errors.Newf(errors.ErrCodeValidation, "%d of %d templates are invalid", len(issues), c.Len())
		},
	}
}

//Personal.AI order the ending
