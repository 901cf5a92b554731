package store

import "sareepos/backend/internal/domain"

// NormalizeCart merges repeated item ids and keeps first-seen order.
// Lines with a non-positive id or quantity are dropped.
func NormalizeCart(lines []domain.CartLine) []domain.CartLine {
	index := make(map[int64]int, len(lines))
	out := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ItemID < 1 || line.Quantity < 1 {
			continue
		}
		if pos, ok := index[line.ItemID]; ok {
			out[pos].Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = len(out)
		out = append(out, line)
	}
	return out
}
