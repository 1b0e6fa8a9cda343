package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gesetzbot/gesetzbot/internal/history"
)

var historyKind string

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored interactions",
	Long: `History lists past questions and quiz sessions.

Kinds:
  question_answer  answered questions
  study_buddy      quiz questions and their assessments`,
	RunE: runHistory,
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the entire interaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		if err := history.NewFileStore(cfg.Paths.History).Reset(); err != nil {
			return err
		}
		fmt.Println("✓ History deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyResetCmd)

	historyCmd.Flags().StringVar(&historyKind, "kind", "", "filter by entry kind (question_answer, study_buddy)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	store := history.NewFileStore(cfg.Paths.History)

	entries, err := store.Query(history.Kind(historyKind))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return nil
	}

	for _, e := range entries {
		switch e.Kind {
		case history.KindQuestionAnswer:
			qa := e.QuestionAnswer
			fmt.Printf("[%s] %s\n  Frage: %s\n  Antwort: %s\n\n",
				e.Time.Format("2006-01-02 15:04"), e.Kind, qa.Question, qa.Answer)
		case history.KindStudyBuddy:
			sb := e.StudyBuddy
			verdict := "?"
			if sb.Assessment != nil {
				if *sb.Assessment {
					verdict = "richtig"
				} else {
					verdict = "falsch"
				}
			}
			fmt.Printf("[%s] %s (%s)\n  Frage: %s\n  Antwort: %s\n  Bewertung: %s\n\n",
				e.Time.Format("2006-01-02 15:04"), e.Kind, verdict, sb.Question, sb.Answer, sb.Explanation)
		}
	}
	return nil
}
