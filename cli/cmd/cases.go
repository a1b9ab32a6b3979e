package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/cli/api"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
)

var casesCmd = &cobra.Command{
	Use:     "cases",
	Aliases: []string{"case"},
	Short:   "File and inspect cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every case",
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := client().ListCases(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(cases)
		}
		ids := make([]string, 0, len(cases))
		for id := range cases {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			c := cases[id]
			rows = append(rows, []string{
				id, c.Type, string(c.Status), c.Judge,
				fmt.Sprint(len(c.Documents)), fmt.Sprint(len(c.Hearings)),
				c.UpdatedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		if len(rows) == 0 {
			pterm.Info.Println("No cases on the ledger")
			return nil
		}
		return renderTable([]string{"Case", "Type", "Status", "Judge", "Docs", "Hearings", "Updated"}, rows)
	},
}

var casesGetCmd = &cobra.Command{
	Use:   "get <case-id>",
	Short: "Show a case and its ledger history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client().GetCase(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(c)
		}
		printCase(c)
		return nil
	},
}

func printCase(c state.CaseRecord) {
	summary := fmt.Sprintf("Type:        %s\nStatus:      %s\nPlaintiff:   %s\nDefendant:   %s\nJudge:       %s\nDescription: %s",
		c.Type, c.Status, c.Parties.Plaintiff, c.Parties.Defendant, c.Judge, c.Description)
	if c.Judgment != nil {
		summary += fmt.Sprintf("\n\nVerdict: %s\nRuling:  %s", c.Judgment.Verdict, c.Judgment.Ruling)
	}
	pterm.DefaultBox.WithTitle(c.CaseID).Println(summary)

	if len(c.Documents) > 0 {
		pterm.DefaultSection.Println("Documents")
		rows := make([][]string, 0, len(c.Documents))
		for _, d := range c.Documents {
			rows = append(rows, []string{d.Name, d.Uploader, short(d.ContentHash, 16), fmt.Sprint(d.BlockIndex)})
		}
		_ = renderTable([]string{"Name", "Uploader", "SHA-256", "Block"}, rows)
	}
	if len(c.Hearings) > 0 {
		pterm.DefaultSection.Println("Hearings")
		rows := make([][]string, 0, len(c.Hearings))
		for _, h := range c.Hearings {
			rows = append(rows, []string{h.Type, h.Date, h.Location})
		}
		_ = renderTable([]string{"Type", "Date", "Location"}, rows)
	}
	pterm.DefaultSection.Println("History")
	rows := make([][]string, 0, len(c.History))
	for _, e := range c.History {
		rows = append(rows, []string{fmt.Sprint(e.BlockIndex), string(e.Action), short(e.BlockHash, 16), e.Timestamp.Local().Format("2006-01-02 15:04:05")})
	}
	_ = renderTable([]string{"Block", "Action", "Hash", "Time"}, rows)
}

var createReq court.CreateCaseRequest

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "File a new case",
	Example: `  courtctl cases create --id EXP-2024-001 --type civil \
    --plaintiff "Ana Ruiz" --defendant "Luis Gil" --judge JUEZ_0123 \
    --description "Contract dispute"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := client().CreateCase(cmd.Context(), createReq)
		if err != nil {
			return err
		}
		return reportSubmission(sub)
	},
}

func reportSubmission(sub api.Submission) error {
	if jsonOutput() {
		return printJSON(sub)
	}
	pterm.Success.Printfln("%s: %s in block %d (%s)", sub.CaseID, sub.Message, sub.Index, short(sub.Hash, 16))
	return nil
}

var (
	docReq  court.AddDocumentRequest
	docFile string
)

var documentCmd = &cobra.Command{
	Use:     "document <case-id>",
	Short:   "Attach a document to a case",
	Example: `  courtctl document EXP-2024-001 --name demanda.pdf --file ./demanda.txt`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if docFile != "" {
			b, err := os.ReadFile(docFile)
			if err != nil {
				return err
			}
			docReq.Content = string(b)
		}
		sub, err := client().AddDocument(cmd.Context(), args[0], docReq)
		if err != nil {
			return err
		}
		return reportSubmission(sub)
	},
}

var hearingReq court.ScheduleHearingRequest

var hearingCmd = &cobra.Command{
	Use:     "hearing <case-id>",
	Short:   "Schedule a hearing",
	Example: `  courtctl hearing EXP-2024-001 --type inicial --date 2024-05-01T10:00:00 --location "Sala 3"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := client().ScheduleHearing(cmd.Context(), args[0], hearingReq)
		if err != nil {
			return err
		}
		return reportSubmission(sub)
	},
}

var judgmentReq court.IssueJudgmentRequest

var judgmentCmd = &cobra.Command{
	Use:   "judgment <case-id>",
	Short: "Issue the judgment that closes a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("yes")
		if !confirm {
			ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Close %s with verdict %q? No further events can be recorded", args[0], judgmentReq.Verdict))
			if err != nil {
				return err
			}
			if !ok {
				pterm.Info.Println("Aborted")
				return nil
			}
		}
		sub, err := client().IssueJudgment(cmd.Context(), args[0], judgmentReq)
		if err != nil {
			return err
		}
		return reportSubmission(sub)
	},
}

var verifyDocFile string

var verifyDocCmd = &cobra.Command{
	Use:   "verify-document <case-id>",
	Short: "Check whether content matches a document filed on a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(verifyDocFile)
		if err != nil {
			return err
		}
		res, err := client().VerifyDocument(cmd.Context(), args[0], string(content))
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(res)
		}
		if !res.Verified {
			pterm.Warning.Printfln("No document on %s has hash %s", res.CaseID, res.ContentHash)
			return nil
		}
		pterm.Success.Printfln("Matches %q filed by %s in block %d", res.Document.Name, res.Document.Uploader, res.Document.BlockIndex)
		return nil
	},
}

func init() {
	casesCmd.AddCommand(casesListCmd, casesGetCmd, casesCreateCmd)
	rootCmd.AddCommand(casesCmd, documentCmd, hearingCmd, judgmentCmd, verifyDocCmd)

	f := casesCreateCmd.Flags()
	f.StringVar(&createReq.CaseID, "id", "", "Case number (required)")
	f.StringVar(&createReq.CaseType, "type", "civil", "civil|penal|laboral")
	f.StringVar(&createReq.PlaintiffName, "plaintiff", "", "Plaintiff name (stored pseudonymized)")
	f.StringVar(&createReq.DefendantName, "defendant", "", "Defendant name (stored pseudonymized)")
	f.StringVar(&createReq.JudgeID, "judge", "", "Assigned judge id")
	f.StringVar(&createReq.Description, "description", "", "Case description")
	_ = casesCreateCmd.MarkFlagRequired("id")

	f = documentCmd.Flags()
	f.StringVar(&docReq.Name, "name", "", "Document name (required)")
	f.StringVar(&docReq.Content, "content", "", "Inline document content")
	f.StringVar(&docFile, "file", "", "Read document content from a file")
	f.StringVar(&docReq.Uploader, "uploader", "", "Uploader (defaults to the logged-in user)")
	_ = documentCmd.MarkFlagRequired("name")
	documentCmd.MarkFlagsMutuallyExclusive("content", "file")

	f = hearingCmd.Flags()
	f.StringVar(&hearingReq.Type, "type", "", "Hearing type (required)")
	f.StringVar(&hearingReq.Date, "date", "", "Hearing date, YYYY-MM-DD[THH:MM:SS] (required)")
	f.StringVar(&hearingReq.Location, "location", "", "Courtroom")
	_ = hearingCmd.MarkFlagRequired("type")
	_ = hearingCmd.MarkFlagRequired("date")

	f = judgmentCmd.Flags()
	f.StringVar(&judgmentReq.Verdict, "verdict", "", "Verdict (required)")
	f.StringVar(&judgmentReq.Ruling, "ruling", "", "Ruling text (required)")
	f.StringVar(&judgmentReq.Details, "details", "", "Additional details")
	f.BoolP("yes", "y", false, "Skip the confirmation prompt")
	_ = judgmentCmd.MarkFlagRequired("verdict")
	_ = judgmentCmd.MarkFlagRequired("ruling")

	verifyDocCmd.Flags().StringVar(&verifyDocFile, "file", "", "File whose content to check (required)")
	_ = verifyDocCmd.MarkFlagRequired("file")
}
