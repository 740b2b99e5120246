// Package bot bridges the automated opponent into the match protocol. The
// move itself comes from an external prediction service; this package encodes
// the board for the model, calls the service with a bounded timeout and turns
// the best-scored cell into a synthetic move message.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"tictactoe/internal/domain"
)

type cell [2]int
type row [3]cell
type grid [3]row

type inferenceRequest struct {
	Instances [1]grid `json:"instances"`
}

type inferenceResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// Predictor scores board states through an external model serving endpoint.
type Predictor struct {
	endpoint string
	client   *http.Client
}

// NewPredictor returns a predictor for the given endpoint. The timeout bounds
// the whole round trip; the caller runs inside a match tick and must never
// block longer than that.
func NewPredictor(endpoint string, timeout time.Duration) *Predictor {
	return &Predictor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Predict encodes the board into the model's expected tensor shape, requests
// per-cell scores and returns the position with the highest score. Ties keep
// the first occurrence.
func (p *Predictor) Predict(ctx context.Context, board domain.Board, own domain.Mark) (domain.BoardPosition, error) {
	raw, err := json.Marshal(inferenceRequest{Instances: [1]grid{encodeBoard(board, own)}})
	if err != nil {
		return -1, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(raw))
	if err != nil {
		return -1, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return -1, fmt.Errorf("failed to call inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return -1, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return -1, fmt.Errorf("failed to read inference response: %w", err)
	}

	var predictions inferenceResponse
	if err := json.Unmarshal(body, &predictions); err != nil {
		return -1, fmt.Errorf("failed to unmarshal inference response: %w", err)
	}
	if len(predictions.Predictions) != 1 || len(predictions.Predictions[0]) != domain.BoardSize {
		return -1, fmt.Errorf("unexpected prediction shape in inference response")
	}

	maxVal := math.Inf(-1)
	best := domain.BoardPosition(-1)
	for i, val := range predictions.Predictions[0] {
		if val > maxVal {
			maxVal = val
			best = domain.BoardPosition(i)
		}
	}

	return best, nil
}

// encodeBoard maps each cell to the model's feature pair: [1,0] for the
// bot's own mark, [0,1] for the opponent's, [0,0] for empty.
func encodeBoard(board domain.Board, own domain.Mark) grid {
	g := grid{}
	for i, mark := range board {
		rowIdx := i / 3
		cellIdx := i % 3

		switch mark {
		case own:
			g[rowIdx][cellIdx] = cell{1, 0}
		case domain.MarkUndefined:
			g[rowIdx][cellIdx] = cell{0, 0}
		default:
			g[rowIdx][cellIdx] = cell{0, 1}
		}
	}
	return g
}
