package a

import "context"

type Union struct{ ID string }

type Registry interface {
	LoadUnion(ctx context.Context, unionID string) (*Union, error)
	AddTransaction(ctx context.Context, assetID, txID string) error
}

type GraphSink interface {
	Publish(ctx context.Context, unionID string) error
}

func bad(ctx context.Context, ids []string, r Registry, sink GraphSink) {
	for _, id := range ids {
		r.LoadUnion(ctx, id)  // want "LoadUnion called inside loop - load the union once before the loop"
		sink.Publish(ctx, id) // want "Publish called inside loop - publish the graph once after the loop"
	}
}

func badImport(ctx context.Context, txIDs []string, r Registry) {
	for _, txID := range txIDs {
		r.AddTransaction(ctx, "asset-1", txID) // want "AddTransaction called inside loop - load the union and asset once and record through the loaded asset"
	}
}

func good(ctx context.Context, ids []string, r Registry, sink GraphSink) {
	union, _ := r.LoadUnion(ctx, "u1")
	for _, id := range ids {
		_ = len(id) + len(union.ID)
	}
	_ = sink.Publish(ctx, union.ID)
}

func deferred(ctx context.Context, ids []string, sink GraphSink) []func() error {
	var fns []func() error
	for _, id := range ids {
		id := id
		fns = append(fns, func() error { return sink.Publish(ctx, id) })
	}
	return fns
}
