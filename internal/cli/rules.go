package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ppiankov/jobtrust/internal/capability"
	"github.com/ppiankov/jobtrust/internal/rules"
	"github.com/spf13/cobra"
)

// rulesCmd lists the rule catalog
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	Long: `List every rule with its category, polarity and base weight.

Rules marked "absence" fire on missing data; the engine suppresses them
when the platform cannot supply that data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCATEGORY\tPOLARITY\tWEIGHT\tTRIGGER\tDESCRIPTION")
		for _, r := range rules.Default().Rules() {
			trigger := "value"
			if r.AbsenceTrigger {
				trigger = "absence"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n", r.ID, r.Category, r.Polarity, r.BaseWeight, trigger, r.Description)
		}
		return tw.Flush()
	},
}

// platformsCmd lists the capability table
var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List known platforms and what each collection method supplies",
	Long: `List the capability table. Platforms not listed are scored with the
least-permissive profile: nothing is expected and recruiter rules are off.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PLATFORM\tMETHOD\tPOSTER\tCOMPANY\tRECRUITER RULES\tNOTE")
		for _, row := range capability.DefaultResolver().Rows() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.Platform, row.Method,
				yesNo(row.Profile.PosterExpected),
				yesNo(row.Profile.CompanyInfoExpected),
				yesNo(row.Profile.RecruiterRulesApplicable),
				row.Note)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(platformsCmd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
