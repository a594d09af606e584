package list_products

import (
	"context"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
)

// Request contains filtering parameters.
type Request struct {
	UnsyncedOnly bool
	SourceChatID string
	Limit        int64
}

// Query handles the list products query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new list products query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute retrieves product summaries, most recently updated first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.ProductDTO, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	filter := &contracts.ProductFilter{
		UnsyncedOnly: req.UnsyncedOnly,
		SourceChatID: req.SourceChatID,
		Limit:        limit,
	}

	return q.readModel.ListProducts(ctx, filter)
}
