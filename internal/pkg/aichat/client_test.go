package aichat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer llm-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hello there  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("llm-key", srv.URL+"/v1/", "test-model")
	text, err := c.Complete(context.Background(), "system prompt", []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestOpenAIClientErrors(t *testing.T) {
	status := http.StatusServiceUnavailable
	body := `{"error":"overloaded"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := NewOpenAIClient("k", srv.URL, "")

	_, err := c.Complete(context.Background(), "s", nil)
	assert.True(t, errors.Is(err, ErrUpstreamStatus))

	status, body = http.StatusOK, `{"choices":[]}`
	_, err = c.Complete(context.Background(), "s", nil)
	assert.True(t, errors.Is(err, ErrUnexpectedResponse))

	body = `<html>proxy page</html>`
	_, err = c.Complete(context.Background(), "s", nil)
	assert.True(t, errors.Is(err, ErrUnexpectedResponse))
}

func TestBuildSystemPromptIsDeterministic(t *testing.T) {
	b := &models.Business{
		BusinessName:   "Mama Kitchen",
		Location:       "Lagos",
		Description:    "Home-cooked meals.",
		AIInstructions: "We close at 9pm.",
	}
	products := []models.Product{
		{ID: 2, Name: "Suya", Price: 1500, IsActive: true},
		{ID: 1, Name: "Jollof Rice", Price: 2500, Description: "Party style", IsActive: true},
		{ID: 3, Name: "Hidden", Price: 1, IsActive: false},
	}

	first := BuildSystemPrompt(b, products)
	reversed := []models.Product{products[2], products[1], products[0]}
	assert.Equal(t, first, BuildSystemPrompt(b, reversed))

	assert.Contains(t, first, `"Mama Kitchen", located in Lagos`)
	assert.Contains(t, first, "Home-cooked meals.")
	assert.Contains(t, first, "We close at 9pm.")
	assert.Contains(t, first, "- Jollof Rice: 2500 (Party style)\n- Suya: 1500\n")
	assert.NotContains(t, first, "Hidden")
	assert.True(t, strings.Contains(first, "Rules:"))
}

func TestBuildSystemPromptWithoutProducts(t *testing.T) {
	p := BuildSystemPrompt(&models.Business{Email: "ada@example.com"}, nil)
	assert.Contains(t, p, `"ada"`)
	assert.Contains(t, p, "No products are listed yet.")
}
