package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	got, ok := ParseKind("  TASK_CREATE ")
	assert.True(t, ok)
	assert.Equal(t, TaskCreate, got)

	got, ok = ParseKind("web_search")
	assert.False(t, ok)
	assert.Equal(t, Conversation, got)

	assert.True(t, TaskComplete.NeedsTaskRef())
	assert.False(t, TaskList.NeedsTaskRef())
	assert.True(t, TaskCreate.Mutating())
	assert.False(t, Conversation.Mutating())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		kind     Kind
		response string
		params   Params
	}{
		{
			name:     "fenced",
			raw:      "```json\n{\"intent\":\"task_list\",\"parameters\":{\"status\":\"todo\"},\"response\":\"Sure\"}\n```",
			kind:     TaskList,
			response: "Sure",
			params:   Params{"status": "todo"},
		},
		{
			name:     "bare fence",
			raw:      "```\n{\"intent\":\"task_reopen\",\"parameters\":{\"task_id\":3},\"response\":\"OK.\"}\n```",
			kind:     TaskReopen,
			response: "OK.",
			params:   Params{"task_id": float64(3)},
		},
		{
			name:     "missing keys",
			raw:      "{}",
			kind:     Conversation,
			response: DefaultResponse,
			params:   Params{},
		},
		{
			name:     "prose around object",
			raw:      `Here you go: {"intent":"task_delete","parameters":{"task_id":999},"response":"I'll delete it."} thanks`,
			kind:     TaskDelete,
			response: "I'll delete it.",
			params:   Params{"task_id": float64(999)},
		},
		{
			name:     "trailing commas repaired",
			raw:      `{"intent": "task_create", "parameters": {"title": "Call mom",}, "response": "I'll add it.",}`,
			kind:     TaskCreate,
			response: "I'll add it.",
			params:   Params{"title": "Call mom"},
		},
		{
			name:     "parameters not an object",
			raw:      `{"intent":"task_list","parameters":"none","response":"Listing."}`,
			kind:     TaskList,
			response: "Listing.",
			params:   Params{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.response, r.Response)
			assert.Equal(t, tt.params, r.Params)
		})
	}
}

func TestParse_unknownIntentBecomesConversation(t *testing.T) {
	r, err := Parse(`{"intent":"web_search","parameters":{"q":"weather"},"response":"Let me look."}`)
	require.NoError(t, err)
	assert.Equal(t, Conversation, r.Kind)
	assert.Equal(t, "web_search", r.RawIntent)
	assert.Equal(t, "Let me look.", r.Response)
}

func TestParse_unparseable(t *testing.T) {
	for _, raw := range []string{"", "Hello there, how can I help?"} {
		r, err := Parse(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnparseable))
		assert.Equal(t, Conversation, r.Kind)
		assert.Empty(t, r.Params)
		assert.Equal(t, UnparseableResponse, r.Response)
	}
}

func TestParams(t *testing.T) {
	cases := []struct {
		v    any
		id   int64
		isID bool
	}{
		{float64(7), 7, true},
		{"12", 12, true},
		{"#5", 5, true},
		{"abc", 0, false},
		{float64(0), 0, false},
		{float64(3.5), 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		id, ok := Params{"task_id": c.v}.TaskID()
		assert.Equal(t, c.isID, ok, "%v", c.v)
		assert.Equal(t, c.id, id, "%v", c.v)
	}

	p := Params{"title": " Buy milk ", "priority": "High"}
	assert.Equal(t, "Buy milk", p.TaskTitle(TaskComplete))
	assert.Equal(t, "", p.TaskTitle(TaskUpdate))
	nt, ok := p.NewTitle()
	assert.True(t, ok)
	assert.Equal(t, "Buy milk", nt)

	p = Params{"task_title": "groceries", "new_title": "Shop"}
	assert.Equal(t, "groceries", p.TaskTitle(TaskUpdate))
	nt, _ = p.NewTitle()
	assert.Equal(t, "Shop", nt)

	assert.True(t, Params{"due_date": nil}.Has("due_date"))
	_, ok = Params{"due_date": nil}.String("due_date")
	assert.False(t, ok)
}

func TestDocsRelevant(t *testing.T) {
	d := DefaultDocs()
	require.NotEmpty(t, d.Sections)

	assert.Nil(t, d.Relevant("What is photosynthesis?"))
	assert.True(t, d.IsGeneralKnowledge("What is photosynthesis?"))

	assert.Equal(t, []string{"limitations", "capabilities"}, d.Relevant("Can you send an email to my boss?"))
	assert.Equal(t, []string{"overview", "priority"}, d.Relevant("What does priority mean in this app?"))
	assert.Empty(t, d.Relevant("add buy milk to my list"))

	doc := d.Render([]string{"priority", "nope"})
	assert.True(t, strings.HasPrefix(doc, "# Priority"))
	assert.NotContains(t, doc, "# Limitations")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No previous conversation.", FormatHistory(nil, 5))

	var h []Turn
	for i := 0; i < 7; i++ {
		h = append(h, Turn{User: fmt.Sprintf("u%d", i), Assistant: fmt.Sprintf("a%d", i)})
	}
	out := FormatHistory(h, 5)
	assert.True(t, strings.HasPrefix(out, "User: u2\nAssistant: a2\n"))
	assert.True(t, strings.HasSuffix(out, "User: u6\nAssistant: a6"))
	assert.NotContains(t, out, "u1")
}

func TestBuildPrompt(t *testing.T) {
	d := DefaultDocs()

	p := BuildPrompt("What does priority mean in this app?", nil, d)
	assert.Contains(t, p, "# Relevant App Documentation")
	assert.Contains(t, p, "# Priority")
	assert.Contains(t, p, "No previous conversation.")

	p = BuildPrompt("What is photosynthesis?", nil, d)
	assert.Contains(t, p, "general knowledge question")

	p = BuildPrompt("add buy milk", []Turn{{User: "hi", Assistant: "hello"}}, d)
	assert.Contains(t, p, "asking about task management")
	assert.Contains(t, p, "User: hi\nAssistant: hello")
	assert.Contains(t, p, `The user has said: "add buy milk"`)
}

func TestExtractor(t *testing.T) {
	var prompt string
	e := NewExtractor(llm.CompleterFunc(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "```json\n{\"intent\":\"task_complete\",\"parameters\":{\"task_title\":\"groceries\"},\"response\":\"I'll mark that task as complete.\"}\n```", nil
	}))
	r, err := e.Extract(context.Background(), "I bought the groceries", nil)
	require.NoError(t, err)
	assert.Equal(t, TaskComplete, r.Kind)
	assert.Equal(t, "groceries", r.Params.TaskTitle(r.Kind))
	assert.Contains(t, prompt, "I bought the groceries")

	e = NewExtractor(llm.CompleterFunc(func(ctx context.Context, p string) (string, error) {
		return "", errors.New("connection refused")
	}))
	r, err = e.Extract(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, Conversation, r.Kind)
	assert.Equal(t, UnavailableResponse, r.Response)
	assert.NotContains(t, r.Response, "connection refused")

	r, err = (&Extractor{}).Extract(context.Background(), "hi", nil)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, Conversation, r.Kind)
}
