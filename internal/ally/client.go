package ally

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xela07ax/instavibe/internal/orchestrate"
)

// OrchestratorClient — HTTP-прокси к сервису оркестратора: создание
// сессии и построчное чтение NDJSON-потока /run.
type OrchestratorClient struct {
	baseURL string
	http    *http.Client
}

func NewOrchestratorClient(baseURL string, timeout time.Duration) *OrchestratorClient {
	return &OrchestratorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateSession создает сессию оркестратора для пары user/session.
func (c *OrchestratorClient) CreateSession(ctx context.Context, userID, sessionID string) error {
	url := fmt.Sprintf("%s/apps/orchestrate/users/%s/sessions/%s", c.baseURL, userID, sessionID)

	body, err := json.Marshal(map[string]any{"state": map[string]string{"initial_state": "true"}})
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("create session: unexpected status %d: %s", resp.StatusCode, preview)
	}
	return nil
}

// Run отправляет сообщение в /run и вызывает onEvent на каждую строку
// потока. Возвращается после исчерпания потока или ошибки чтения.
func (c *OrchestratorClient) Run(ctx context.Context, userID, sessionID, message string, onEvent func(orchestrate.Event)) error {
	body, err := json.Marshal(map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("run query: unexpected status %d: %s", resp.StatusCode, preview)
	}

	scanner := bufio.NewScanner(resp.Body)
	// События с tool-результатами бывают крупными
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev orchestrate.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("decode run event: %w", err)
		}
		onEvent(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read run stream: %w", err)
	}
	return nil
}
