package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client — транспорт протокола A2A поверх HTTP. Один экземпляр шарится
// между всеми соединениями (connection pooling в http.Transport).
type Client struct {
	http *http.Client
}

// NewClient создает клиент с общим пулом соединений.
// timeout — верхняя граница на один вызов; ноль выключает лимит клиента
// (дедлайн тогда задает только контекст).
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
	}
}

// ResolveCard забирает карточку агента с well-known адреса.
func (c *Client) ResolveCard(ctx context.Context, address string) (*AgentCard, error) {
	url := strings.TrimRight(address, "/") + AgentCardPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("a2a: build card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("a2a: fetch agent card from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("a2a: agent card endpoint %s returned %d", url, resp.StatusCode)
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("a2a: decode agent card from %s: %w", address, err)
	}
	if card.Name == "" {
		return nil, fmt.Errorf("a2a: agent card from %s has no name", address)
	}
	return &card, nil
}

// SendTask выполняет tasks/send и возвращает Task из result.
// JSON-RPC ошибка уровня протокола возвращается как *Error.
func (c *Client) SendTask(ctx context.Context, endpoint string, params TaskSendParams) (*Task, error) {
	rpcReq, err := NewSendTaskRequest(params.ID, params)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("a2a: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("a2a: build task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("a2a: call agent %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Превью тела помогает в диагностике, но не доверяем ему как JSON
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("a2a: agent %s returned status %d (body: %s)",
			endpoint, resp.StatusCode, string(preview))
	}

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("a2a: decode response from %s: %w", endpoint, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	if len(rpcResp.Result) == 0 {
		return nil, nil // пустой result — валидный ответ, обработка выше
	}

	var task Task
	if err := json.Unmarshal(rpcResp.Result, &task); err != nil {
		return nil, fmt.Errorf("a2a: decode task from %s: %w", endpoint, err)
	}
	return &task, nil
}
