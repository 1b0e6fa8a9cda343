package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gesetzbot/gesetzbot/internal/qa"
)

var (
	studyTopic string
	studyTopK  int
	studyLaws  []string
	studyModel string
)

// studyCmd represents the study command
var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Quiz yourself on the indexed statutes",
}

var studyQuizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a comprehension question and grade your answer",
	Long: `Quiz retrieves paragraphs about the topic, picks one at random, generates a
comprehension question from it, reads your answer from stdin and grades it
against the paragraph the question came from.

Example:
  gesetzbot study quiz --topic "Abschreibung" --laws EStG`,
	RunE: runStudyQuiz,
}

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyQuizCmd)

	studyQuizCmd.Flags().StringVar(&studyTopic, "topic", "", "topic to quiz about (required)")
	studyQuizCmd.Flags().IntVar(&studyTopK, "top-k", 3, "number of candidate paragraphs to retrieve")
	studyQuizCmd.Flags().StringArrayVar(&studyLaws, "laws", nil, "restrict to these law codes (repeatable)")
	studyQuizCmd.Flags().StringVar(&studyModel, "model", "", "chat model to use (default from config)")
	_ = studyQuizCmd.MarkFlagRequired("topic")
}

func runStudyQuiz(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := buildConfig()

	buddy, index, err := newStudyBuddy(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	question, err := buddy.GenerateQuestion(ctx, qa.QuestionRequest{
		Topic: studyTopic,
		TopK:  studyTopK,
		Laws:  studyLaws,
		Model: studyModel,
	})
	if err != nil {
		return fmt.Errorf("generate question: %w", err)
	}

	fmt.Printf("Frage (%s):\n%s\n\nDeine Antwort: ", question.Source, question.Text)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	feedback, err := buddy.AssessAnswer(ctx, qa.AssessRequest{
		Topic:    studyTopic,
		Question: *question,
		Answer:   answer,
		Model:    studyModel,
	})
	if err != nil {
		return fmt.Errorf("assess answer: %w", err)
	}

	fmt.Printf("\n%s\n", feedback)
	return nil
}
