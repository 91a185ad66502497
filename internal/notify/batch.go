package notify

import "strings"

// Dedupe returns the distinct, trimmed, non-empty tokens in first-seen order.
func Dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Batch splits tokens into consecutive chunks of at most size elements. The
// final chunk may be smaller. An empty input yields zero batches.
func Batch(tokens []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(tokens) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		batches = append(batches, tokens[start:end])
	}
	return batches
}

// CollectTokens unions every account's token set with its last-known token,
// trimmed, non-empty and deduplicated in first-seen order.
func CollectTokens(accounts []Account) []string {
	var raw []string
	for _, a := range accounts {
		raw = append(raw, a.Tokens...)
		if a.LastToken != "" {
			raw = append(raw, a.LastToken)
		}
	}
	return Dedupe(raw)
}
