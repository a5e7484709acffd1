package synapse

import (
	"context"
	"encoding/json"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/extractor"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/rpc"
)

// RPC method names served by Register.
const (
	MethodAdd     = "Synapse.Add"
	MethodQuery   = "Synapse.Query"
	MethodExtract = "Synapse.Extract"
	MethodNumbers = "Synapse.Numbers"
	MethodCount   = "Synapse.Count"
	MethodVersion = "Synapse.Version"
)

type AddRequest struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

type QueryRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

// TextRequest carries the text and result bound of Extract and Numbers.
type TextRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

type ExtractResponse struct {
	Matches []extractor.Match `json:"matches"`
	Total   int               `json:"total"`
}

type NumbersResponse struct {
	Numbers []extractor.Quantity `json:"numbers"`
	Total   int                  `json:"total"`
}

type CountResponse struct {
	Documents int64 `json:"documents"`
}

// Register exposes every operation of svc on srv.
func Register(srv *rpc.Server, svc *Service) {
	srv.Register(MethodAdd, func(_ context.Context, params json.RawMessage) (any, error) {
		req, err := rpc.Decode[AddRequest](params)
		if err != nil {
			return nil, err
		}
		if err := svc.Add(req.ID, req.Content, req.Subject, req.Sender, req.Timestamp); err != nil {
			return nil, err
		}
		return CountResponse{Documents: svc.Count()}, nil
	})
	srv.Register(MethodQuery, func(_ context.Context, params json.RawMessage) (any, error) {
		req, err := rpc.Decode[QueryRequest](params)
		if err != nil {
			return nil, err
		}
		return svc.Query(req.Text, req.Limit), nil
	})
	srv.Register(MethodExtract, func(_ context.Context, params json.RawMessage) (any, error) {
		req, err := rpc.Decode[TextRequest](params)
		if err != nil {
			return nil, err
		}
		matches, total := svc.Extract(req.Text, req.Limit)
		return ExtractResponse{Matches: matches, Total: total}, nil
	})
	srv.Register(MethodNumbers, func(_ context.Context, params json.RawMessage) (any, error) {
		req, err := rpc.Decode[TextRequest](params)
		if err != nil {
			return nil, err
		}
		numbers, total := svc.Numbers(req.Text, req.Limit)
		return NumbersResponse{Numbers: numbers, Total: total}, nil
	})
	srv.Register(MethodCount, func(context.Context, json.RawMessage) (any, error) {
		return CountResponse{Documents: svc.Count()}, nil
	})
	srv.Register(MethodVersion, func(context.Context, json.RawMessage) (any, error) {
		return svc.Version(), nil
	})
}
