package cli

import (
	"fmt"

	"careerquest-service/internal/catalog"
	"careerquest-service/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// NewDomainsCmd prints the domain catalog.
func NewDomainsCmd() *cobra.Command {
	var category, lang string
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the departments students can be assessed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := domain.ParseCategory(category)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDomains(catalog.Default().FilterByCategory(c), lang))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", string(domain.CategoryAll), "all, aviation, hospitality or career-skills")
	cmd.Flags().StringVar(&lang, "lang", domain.DefaultLanguage, "language for names and descriptions")
	return cmd
}

func renderDomains(domains []domain.Domain, lang string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORY", "DESCRIPTION")
	for _, d := range domains {
		t.Row(d.ID, d.DisplayName(lang), string(d.Category), d.Summary(lang))
	}
	return t.String()
}
