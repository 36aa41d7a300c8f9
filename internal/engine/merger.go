package engine

import "tabstat/internal/errors"

// mergeChunks folds the chunk results left to right in chunk order.
func mergeChunks(results []chunkResult) (rows int64, parts []Partial, err error) {
	for i, r := range results {
		rows += r.rows
		if i == 0 {
			parts = r.parts
			continue
		}
		if err := mergePartials(parts, r.parts); err != nil {
			return 0, nil, err
		}
	}
	return rows, parts, nil
}

// mergePartials folds src into dst, field by field.
func mergePartials(dst, src []Partial) error {
	if len(dst) != len(src) {
		return errors.InternalError("partials of different width cannot be merged")
	}
	for i := range dst {
		dst[i].Verdict.Merge(src[i].Verdict)
		dst[i].Accumulator.Merge(src[i].Accumulator)
		if err := dst[i].Collector.Merge(src[i].Collector); err != nil {
			return err
		}
	}
	return nil
}
