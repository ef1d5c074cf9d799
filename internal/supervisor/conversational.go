package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/discovery"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/memory"
)

// HistoryTurn is one role-tagged message in a conversational exchange.
type HistoryTurn struct {
	Role    string
	Content string
}

const conversationalFallback = "I couldn't come up with a reply just now; please try again in a moment."

// ConversationalReply answers a free-form message, optionally scoped to one
// notebook's archive for context. A chat-completion failure degrades to a
// graceful apology rather than surfacing an error.
func (s *Supervisor) ConversationalReply(ctx context.Context, message, notebookID string, history []HistoryTurn) string {
	if s.deps.Chat == nil {
		return conversationalFallback
	}

	var archiveContext strings.Builder
	if notebookID != "" && s.deps.Embedder != nil && s.deps.Archive != nil {
		if vec, err := s.deps.Embedder.Embed(ctx, message); err == nil {
			results, err := s.deps.Archive.Search(ctx, notebookID, memory.ArchiveSearchInput{
				QueryEmbedding:     memory.NewEmbeddingVector(vec),
				Limit:              5,
				AsGathererNotebook: notebookID,
			})
			if err == nil {
				for _, r := range results {
					fmt.Fprintf(&archiveContext, "- %s\n", preview(r.Content, 200))
				}
			}
		}
	}

	var convo strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&convo, "%s: %s\n", turn.Role, turn.Content)
	}

	system := "You are a research assistant replying conversationally, grounded in the notebook's own archived material when available. " +
		"Be concise and direct."
	prompt := fmt.Sprintf("Conversation so far:\n%s\nRelevant archive material:\n%s\nUser: %s", convo.String(), archiveContext.String(), message)

	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 20 * time.Second})
	if err != nil || resp == "" {
		return conversationalFallback
	}
	return resp
}

// CounterargumentResult is the outcome of probing a notebook's accumulated
// thesis for counter-evidence.
type CounterargumentResult struct {
	Thesis           string
	Counterarguments []string
}

// FindCounterarguments infers the notebook's working thesis when none is
// supplied, generates counter-search queries, and asks a chat-completion
// model to extract counterarguments from what turns up.
func (s *Supervisor) FindCounterarguments(ctx context.Context, notebookID, thesis string) (CounterargumentResult, error) {
	if thesis == "" {
		inferred, err := s.inferThesis(ctx, notebookID)
		if err != nil {
			return CounterargumentResult{}, err
		}
		thesis = inferred
	}
	if thesis == "" {
		return CounterargumentResult{}, nil
	}

	queries := s.generateCounterQueries(ctx, thesis)
	var snippets []string
	if s.deps.Search != nil {
		for _, q := range queries {
			qctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			results, err := s.deps.Search.Search(qctx, q, 5, "")
			cancel()
			if err != nil {
				continue
			}
			for _, r := range results {
				snippets = append(snippets, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
			}
		}
	}

	out := CounterargumentResult{Thesis: thesis}
	if len(snippets) == 0 || s.deps.Chat == nil {
		return out, nil
	}

	system := "Given a research thesis and a set of search snippets, extract distinct counterarguments or " +
		"contradicting evidence. Respond with one counterargument per line. If none are found, respond with NONE."
	prompt := fmt.Sprintf("Thesis: %s\n\nSnippets:\n%s", thesis, strings.Join(snippets, "\n"))
	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 20 * time.Second})
	if err != nil || resp == "" || strings.EqualFold(strings.TrimSpace(resp), "NONE") {
		return out, nil
	}
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out.Counterarguments = append(out.Counterarguments, line)
		}
	}
	return out, nil
}

// inferThesis asks a chat-completion model to state the notebook's
// accumulated working thesis from its archived material.
func (s *Supervisor) inferThesis(ctx context.Context, notebookID string) (string, error) {
	if s.deps.Chat == nil || s.deps.Archive == nil || s.deps.Profiles == nil {
		return "", nil
	}
	profile, err := s.deps.Profiles.Load(notebookID)
	if err != nil {
		return "", fmt.Errorf("loading profile for %s: %w", notebookID, err)
	}

	var archiveContext strings.Builder
	if s.deps.Embedder != nil {
		if vec, err := s.deps.Embedder.Embed(ctx, profile.Intent); err == nil {
			results, err := s.deps.Archive.Search(ctx, notebookID, memory.ArchiveSearchInput{
				QueryEmbedding:     memory.NewEmbeddingVector(vec),
				Limit:              10,
				AsGathererNotebook: notebookID,
			})
			if err == nil {
				for _, r := range results {
					fmt.Fprintf(&archiveContext, "- %s\n", preview(r.Content, 200))
				}
			}
		}
	}

	system := "State, in one sentence, the working thesis this research notebook's material appears to support."
	prompt := fmt.Sprintf("Intent: %s\n\nMaterial:\n%s", profile.Intent, archiveContext.String())
	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 15 * time.Second})
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(resp), nil
}

// generateCounterQueries turns a thesis into a handful of search queries
// likely to surface contradicting evidence. Degrades to a fixed template
// set when no chat-completion capability is available.
func (s *Supervisor) generateCounterQueries(ctx context.Context, thesis string) []string {
	if s.deps.Chat == nil {
		return []string{thesis + " criticism", thesis + " debunked", thesis + " counterargument"}
	}
	system := "Given a research thesis, generate 3 short web-search queries likely to surface evidence that " +
		"contradicts it. Respond with one query per line."
	resp, err := s.deps.Chat.Complete(ctx, system, "Thesis: "+thesis, external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		return []string{thesis + " criticism", thesis + " debunked", thesis + " counterargument"}
	}
	var queries []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			queries = append(queries, line)
		}
	}
	if len(queries) == 0 {
		return []string{thesis + " criticism", thesis + " debunked", thesis + " counterargument"}
	}
	return queries
}

// ValidatedSource is a discovered source after an optional reachability
// check.
type ValidatedSource struct {
	discovery.Source
	Validated bool
	Reason    string
}

// ValidateDiscoveredSources confirms each discovered source's URL is
// reachable via the scraper, when one is present; sources without a URL
// (queries, tickers) pass through unvalidated. Validation failures never
// error the batch — they're recorded per-source.
func (s *Supervisor) ValidateDiscoveredSources(ctx context.Context, notebookID, intent string, sources []discovery.Source) []ValidatedSource {
	out := make([]ValidatedSource, len(sources))
	for i, src := range sources {
		out[i] = ValidatedSource{Source: src, Validated: true}
		u, ok := src.Value["url"].(string)
		if !ok || u == "" || s.deps.Scraper == nil {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		result, err := s.deps.Scraper.Scrape(sctx, u)
		cancel()
		if err != nil || !result.Success {
			out[i].Validated = false
			out[i].Reason = "source unreachable"
			continue
		}
		out[i].Reason = "reachable"
	}
	return out
}
