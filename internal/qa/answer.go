package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gesetzbot/gesetzbot/internal/history"
	"github.com/gesetzbot/gesetzbot/internal/llm"
	"github.com/gesetzbot/gesetzbot/internal/model"
	"github.com/gesetzbot/gesetzbot/internal/worker"
)

// ErrInvalidTopK is returned for a top-k below 1, before any retrieval or
// model call is made.
var ErrInvalidTopK = errors.New("top-k must be >= 1")

// Answerer turns a question into a grounded, cited answer. With top-k of 1
// it answers directly from the single retrieved chunk; with a larger top-k
// it runs a map phase (per-chunk relevance filtering) followed by a single
// reduce call over the surviving partial answers.
type Answerer struct {
	retriever    *Retriever
	client       llm.Client
	history      history.Store
	defaultModel string
	mapWorkers   int
}

// NewAnswerer creates an answerer. mapWorkers bounds the concurrency of the
// map-phase model calls.
func NewAnswerer(retriever *Retriever, client llm.Client, hist history.Store, defaultModel string, mapWorkers int) *Answerer {
	if mapWorkers <= 0 {
		mapWorkers = 1
	}
	return &Answerer{
		retriever:    retriever,
		client:       client,
		history:      hist,
		defaultModel: defaultModel,
		mapWorkers:   mapWorkers,
	}
}

// AnswerRequest is one question against the corpus.
type AnswerRequest struct {
	Query string
	TopK  int
	Laws  model.LawFilter
	Model string // empty = the answerer's default
}

// AnswerResult is the final grounded answer.
type AnswerResult struct {
	Text       string   // answer text including the citation suffix
	Sources    []string // cited chunk ids, retrieval rank order
	Irrelevant []string // chunk ids filtered out in the map phase
}

// Answer resolves the request. Every successful call appends exactly one
// history entry whose answer equals the returned text.
func (a *Answerer) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	if req.TopK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, req.TopK)
	}

	chatModel := req.Model
	if chatModel == "" {
		chatModel = a.defaultModel
	}

	chunks, err := a.retriever.Retrieve(ctx, req.Query, req.TopK, req.Laws)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks in the index match the query filter")
	}

	var result *AnswerResult
	var contextSummary string
	if req.TopK == 1 {
		result, contextSummary, err = a.answerDirect(ctx, req.Query, chatModel, chunks[0])
	} else {
		result, contextSummary, err = a.answerMapReduce(ctx, req.Query, chatModel, chunks)
	}
	if err != nil {
		return nil, err
	}

	entry := history.Entry{
		Kind: history.KindQuestionAnswer,
		QuestionAnswer: &history.QuestionAnswerEntry{
			Model:          chatModel,
			Question:       req.Query,
			ContextSummary: contextSummary,
			Answer:         result.Text,
			Laws:           []string(req.Laws),
		},
	}
	if err := a.history.Append(entry); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	return result, nil
}

// answerDirect sends the single retrieved chunk through the plain RAG prompt.
func (a *Answerer) answerDirect(ctx context.Context, query, chatModel string, chunk model.RetrievedChunk) (*AnswerResult, string, error) {
	prompt := renderPrompt(promptRAG, map[string]string{
		"context":  chunk.Document,
		"question": query,
	})
	reply, err := a.complete(ctx, prompt, chatModel)
	if err != nil {
		return nil, "", err
	}

	sources := []string{chunk.ID}
	return &AnswerResult{
		Text:    reply + citationSuffix(sources, nil),
		Sources: sources,
	}, chunk.Document, nil
}

// answerMapReduce filters every chunk for relevance independently, then
// reduces the surviving partial answers with a single summary call.
func (a *Answerer) answerMapReduce(ctx context.Context, query, chatModel string, chunks []model.RetrievedChunk) (*AnswerResult, string, error) {
	replies, err := a.mapChunks(ctx, query, chatModel, chunks)
	if err != nil {
		return nil, "", err
	}

	var (
		sources    []string
		irrelevant []string
		lines      []string
	)
	for i, chunk := range chunks {
		reply := strings.TrimSpace(replies[i])
		// Only the literal sentinel (or an empty reply, which cannot
		// contribute context) drops a chunk. Transport errors have
		// already failed the whole query in mapChunks.
		if reply == "" || strings.EqualFold(reply, irrelevantSentinel) {
			irrelevant = append(irrelevant, chunk.ID)
			continue
		}
		sources = append(sources, chunk.ID)
		lines = append(lines, chunk.ID+": "+reply)
	}

	if len(sources) == 0 {
		slog.Info("all chunks filtered as irrelevant", "query", query, "checked", irrelevant)
		text := noRelevantContext + "\n\nGeprüfte Quellen: " + strings.Join(irrelevant, ",")
		return &AnswerResult{Text: text, Irrelevant: irrelevant}, "", nil
	}

	contextSummary := strings.Join(lines, "\n")
	prompt := renderPrompt(promptMapReduceSummary, map[string]string{
		"context":  contextSummary,
		"question": query,
	})
	reply, err := a.complete(ctx, prompt, chatModel)
	if err != nil {
		return nil, "", err
	}

	return &AnswerResult{
		Text:       reply + citationSuffix(sources, irrelevant),
		Sources:    sources,
		Irrelevant: irrelevant,
	}, contextSummary, nil
}

// mapChunks runs the per-chunk relevance prompts on the worker pool and
// re-joins the replies by retrieval rank. A transport failure on any chunk
// fails the whole query; it is never misread as "irrelevant".
func (a *Answerer) mapChunks(ctx context.Context, query, chatModel string, chunks []model.RetrievedChunk) ([]string, error) {
	// All jobs are submitted before Wait drains, so the pool must buffer
	// every chunk or submission blocks once the workers fill the buffers.
	pool := worker.NewPool(ctx, a.mapWorkers, len(chunks))
	pool.Start()
	defer pool.Shutdown()

	for i, chunk := range chunks {
		pool.Submit(&relevanceJob{
			rank:   i,
			chunk:  chunk,
			query:  query,
			model:  chatModel,
			client: a.client,
		})
	}

	results := pool.Wait()
	if len(results) != len(chunks) {
		return nil, ctx.Err()
	}

	joined := make([]*relevanceResult, 0, len(results))
	for _, r := range results {
		rr := r.(*relevanceResult)
		if rr.err != nil {
			return nil, fmt.Errorf("relevance check for %s: %w", rr.id, rr.err)
		}
		joined = append(joined, rr)
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].rank < joined[j].rank })

	replies := make([]string, len(joined))
	for i, rr := range joined {
		replies[i] = rr.reply
	}
	return replies, nil
}

func (a *Answerer) complete(ctx context.Context, prompt, chatModel string) (string, error) {
	return a.client.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       chatModel,
		Temperature: 0,
	})
}

// citationSuffix appends the cited sources and, when chunks were filtered
// out, the list of sources that were checked but rejected.
func citationSuffix(sources, irrelevant []string) string {
	s := "\n\nQuelle: " + strings.Join(sources, ",")
	if len(irrelevant) > 0 {
		s += "\nEbenfalls geprüft: " + strings.Join(irrelevant, ",")
	}
	return s
}

// relevanceJob is one map-phase model call.
type relevanceJob struct {
	rank   int
	chunk  model.RetrievedChunk
	query  string
	model  string
	client llm.Client
}

func (j *relevanceJob) Execute(ctx context.Context) worker.Result {
	prompt := renderPrompt(promptMapReduce, map[string]string{
		"context":  j.chunk.Document,
		"question": j.query,
	})
	reply, err := j.client.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       j.model,
		Temperature: 0,
	})
	return &relevanceResult{rank: j.rank, id: j.chunk.ID, reply: reply, err: err}
}

// relevanceResult carries one map reply, keyed by retrieval rank.
type relevanceResult struct {
	rank  int
	id    string
	reply string
	err   error
}

func (r *relevanceResult) GetError() error { return r.err }
