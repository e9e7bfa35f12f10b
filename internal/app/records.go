package app

import (
	"context"
	"errors"
	"fmt"

	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	idb "whatsapp_gateway/internal/infra/database"
)

// LoadRecord returns the record id of model. Contacts are read from the
// partner table, other models from the generic record table.
func LoadRecord(ctx context.Context, st store.Store, model string, id int64) (thread.Record, error) {
	if model == partner.Model {
		p, err := st.Partners().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, idb.ErrPartnerNotFound) {
				return nil, fmt.Errorf("%s/%d: %w", model, id, idb.ErrRecordNotFound)
			}
			return nil, err
		}
		return p, nil
	}
	d, err := st.Records().Get(ctx, model, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// LoadRecords returns the existing records among ids, in order.
func LoadRecords(ctx context.Context, st store.Store, model string, ids []int64) ([]thread.Record, error) {
	var records []thread.Record
	if model == partner.Model {
		partners, err := st.Partners().ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range partners {
			records = append(records, p)
		}
		return records, nil
	}

	docs, err := st.Records().List(ctx, model, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*thread.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			records = append(records, d)
		}
	}
	return records, nil
}
