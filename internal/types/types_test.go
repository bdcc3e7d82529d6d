package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTextResponseShape(t *testing.T) {
	body, err := json.Marshal(TextResponse{Text: "Hello world."})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	if string(body) != `{"text":"Hello world."}` {
		t.Errorf("Expected single text field, got '%s'", body)
	}
}

func TestResponseShape(t *testing.T) {
	body, _ := json.Marshal(Response{Success: false, Message: "boom"})

	if string(body) != `{"success":false,"message":"boom"}` {
		t.Errorf("Unexpected envelope '%s'", body)
	}
}

func TestResult(t *testing.T) {
	now := time.Now()
	res := Result{
		ID:         "abc",
		CharsTyped: 10,
		Errors:     1,
		Accuracy:   90,
		Source:     SourceFile,
		CreatedAt:  now,
	}

	if res.Source != "file" {
		t.Errorf("Expected source 'file', got '%s'", res.Source)
	}

	if res.Accuracy != 90 {
		t.Errorf("Expected accuracy 90, got %d", res.Accuracy)
	}
}

func TestWSMessage(t *testing.T) {
	msg := WSMessage{
		Type:   "text",
		Text:   "Hello",
		Source: SourceFallback,
	}

	body, _ := json.Marshal(msg)
	if !strings.Contains(string(body), `"source":"fallback"`) {
		t.Errorf("Expected source in payload, got '%s'", body)
	}

	if strings.Contains(string(body), `"message"`) {
		t.Errorf("Expected empty message to be omitted, got '%s'", body)
	}
}
