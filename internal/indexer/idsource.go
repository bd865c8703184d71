package indexer

import "context"

// idProvider yields successive ID chunks of up to batchSize items. Next
// returns ok=false once exhausted.
type idProvider interface {
	Next(ctx context.Context) (chunk []string, ok bool, err error)
}

// sliceProvider chunks a caller-supplied ID list (spec §4.1.2 step 1:
// "if ids given, chunk it into batches of batch_size").
type sliceProvider struct {
	ids       []string
	batchSize int
	offset    int
}

func newSliceProvider(ids []string, batchSize int) *sliceProvider {
	return &sliceProvider{ids: ids, batchSize: batchSize}
}

func (p *sliceProvider) Next(ctx context.Context) ([]string, bool, error) {
	if p.offset >= len(p.ids) {
		return nil, false, nil
	}
	end := p.offset + p.batchSize
	if end > len(p.ids) {
		end = len(p.ids)
	}
	chunk := p.ids[p.offset:end]
	p.offset = end
	return chunk, true, nil
}

// streamProvider chunks IDs streamed live from the source collection
// (spec §4.1.2 step 1: "else, stream IDs from the source collection in
// batch_size chunks").
type streamProvider struct {
	ids       <-chan string
	errs      <-chan error
	batchSize int
	exhausted bool
}

func newStreamProvider(ids <-chan string, errs <-chan error, batchSize int) *streamProvider {
	return &streamProvider{ids: ids, errs: errs, batchSize: batchSize}
}

func (p *streamProvider) Next(ctx context.Context) ([]string, bool, error) {
	if p.exhausted {
		return nil, false, nil
	}

	chunk := make([]string, 0, p.batchSize)
	for len(chunk) < p.batchSize {
		select {
		case id, open := <-p.ids:
			if !open {
				p.exhausted = true
				if len(chunk) == 0 {
					return nil, false, drainErr(p.errs)
				}
				return chunk, true, nil
			}
			chunk = append(chunk, id)
		case err := <-p.errs:
			if err != nil {
				p.exhausted = true
				return nil, false, err
			}
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	return chunk, true, nil
}

func drainErr(errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
