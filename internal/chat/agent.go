package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/vector"
)

const (
	defaultTopK     = 5
	chatTemperature = 0.7
)

// noMatchAnswer is returned verbatim when retrieval finds nothing; no model
// call is made in that case.
const noMatchAnswer = "I couldn't find relevant information in the report to answer your question. The report may not contain information about this topic."

const systemInstructions = `You are a research assistant that answers questions about company research reports.

**CRITICAL RULES:**
1. You MUST answer questions using ONLY the information provided in the report excerpts below.
2. If the information needed to answer the question is NOT in the provided excerpts, you MUST say "I don't know from this report" or "This information is not available in the report."
3. DO NOT use any knowledge outside of the provided report excerpts.
4. DO NOT make up information or infer details not explicitly stated in the excerpts.
5. When citing information, reference the section or context from the excerpts.

**Guidelines:**
- Be precise and accurate
- Cite specific information from the excerpts when possible
- If the question requires information from multiple sections, synthesize across the provided excerpts
- If excerpts are unclear or contradictory, note this in your answer
- Keep answers concise but complete
- If asked about something not in the excerpts, clearly state that the information is not available in this report

**Your goal:** Provide accurate, helpful answers based solely on the provided report excerpts.`

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Agent answers questions about a stored report by retrieving the most
// relevant chunks and grounding a completion on them.
type Agent struct {
	provider llm.Provider
	embedder QueryEmbedder
	searcher *vector.Searcher
	sessions *SessionRegistry
	topK     int
}

// NewAgent builds a chat agent. A nil registry gets a default-sized one.
func NewAgent(provider llm.Provider, embedder QueryEmbedder, searcher *vector.Searcher, sessions *SessionRegistry) *Agent {
	if sessions == nil {
		sessions = NewSessionRegistry(0, 0)
	}
	return &Agent{
		provider: provider,
		embedder: embedder,
		searcher: searcher,
		sessions: sessions,
		topK:     defaultTopK,
	}
}

// Answer responds to a question about the report and returns the excerpts
// the answer was grounded on. When sessionID is non-empty the exchange is
// recorded and the last turns feed the next prompt. A non-empty section
// restricts retrieval to chunks carrying that section label. Retrieval
// misses short-circuit with a fixed answer.
func (a *Agent) Answer(ctx context.Context, reportID, sessionID, question, section string) (string, []vector.ScoredChunk, error) {
	ctx, finish := telemetry.StartSpan(ctx, "chat.answer")
	defer finish("report_id", reportID)

	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("chat: empty question")
	}

	queryVec, err := a.embedder.EmbedOne(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("chat: embed question: %w", err)
	}
	var matches []vector.ScoredChunk
	if section = strings.TrimSpace(section); section != "" {
		matches, err = a.searcher.SearchSection(ctx, reportID, section, queryVec, a.topK, 0)
	} else {
		matches, err = a.searcher.Search(ctx, reportID, queryVec, a.topK, 0)
	}
	if err != nil {
		return "", nil, fmt.Errorf("chat: retrieve chunks: %w", err)
	}

	var session *Session
	if sessionID != "" {
		session = a.sessions.Get(sessionID, reportID)
	}

	if len(matches) == 0 {
		if session != nil {
			a.sessions.Append(session, question, noMatchAnswer)
		}
		common.Logger().Info("chat retrieval found no matches", "report_id", reportID)
		return noMatchAnswer, nil, nil
	}

	var history []Turn
	if session != nil {
		history = session.RecentTurns()
	}
	messages := []llm.Message{
		{Role: "system", Content: systemInstructions},
		{Role: "user", Content: buildPrompt(question, matches, history)},
	}
	answer, err := a.provider.Chat(ctx, messages, &llm.ChatOptions{Temperature: chatTemperature})
	if err != nil {
		return "", nil, fmt.Errorf("chat: generate answer: %w", err)
	}
	if session != nil {
		a.sessions.Append(session, question, answer)
	}
	return answer, matches, nil
}

func buildPrompt(question string, matches []vector.ScoredChunk, history []Turn) string {
	var b strings.Builder
	b.WriteString("Relevant excerpts from the report:\n\n")
	for i, match := range matches {
		section := ""
		if name := match.Chunk.SectionName(); name != "" {
			section = fmt.Sprintf(" (Section: %s)", name)
		}
		fmt.Fprintf(&b, "[Excerpt %d%s]\n%s\n\n", i+1, section, match.Chunk.ChunkText)
	}
	b.WriteString("---\n\n")
	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range history {
			role := turn.Role
			if role != "" {
				role = strings.ToUpper(role[:1]) + role[1:]
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	b.WriteString("Answer the question using ONLY the information from the report excerpts above. If the information is not available in the excerpts, say so clearly.")
	return b.String()
}
