package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gesetzbot/gesetzbot/internal/qa"
)

var (
	askTopK  int
	askLaws  []string
	askModel string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed statutes",
	Long: `Ask retrieves the most relevant statute paragraphs for the question and
synthesizes a grounded answer with cited sources.

With --top-k 1 the single best paragraph is answered from directly. With a
larger top-k each retrieved paragraph is first checked for relevance and the
surviving extracts are summarized into one answer.

Example:
  gesetzbot ask "Gilt die Entnahme eines Wirtschaftsguts als Anschaffung?"
  gesetzbot ask --laws EStG --laws KStG --top-k 5 "Wann beginnt die Gewinnermittlung?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().IntVar(&askTopK, "top-k", 3, "number of paragraphs to retrieve (>= 1)")
	askCmd.Flags().StringArrayVar(&askLaws, "laws", nil, "restrict retrieval to these law codes (repeatable)")
	askCmd.Flags().StringVar(&askModel, "model", "", "chat model to use (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := buildConfig()

	answerer, index, err := newAnswerer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	result, err := answerer.Answer(ctx, qa.AnswerRequest{
		Query: args[0],
		TopK:  askTopK,
		Laws:  askLaws,
		Model: askModel,
	})
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	fmt.Println(result.Text)
	return nil
}
