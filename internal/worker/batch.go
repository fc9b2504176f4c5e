package worker

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/newsguard/internal/model"
)

// Checker runs one claim through the credibility pipeline
type Checker interface {
	Check(ctx context.Context, text string) *model.Analysis
}

// ClaimJob checks a single claim
type ClaimJob struct {
	Line    int
	Text    string
	Checker Checker
}

// Execute executes the claim check
func (j *ClaimJob) Execute(ctx context.Context) Result {
	return &ClaimResult{
		Line:     j.Line,
		Text:     j.Text,
		Analysis: j.Checker.Check(ctx, j.Text),
	}
}

// ClaimResult is the outcome of one claim in a batch
type ClaimResult struct {
	Line     int
	Text     string
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the claim result
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many claims concurrently through a shared pipeline
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessClaims checks claims concurrently. Results keep input order; claims
// that never ran because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []Claim) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, Size(len(claims), b.concurrency))
	pool.Start()

	for _, c := range claims {
		pool.Submit(&ClaimJob{Line: c.Line, Text: c.Text, Checker: b.checker})
	}

	results := pool.Wait()

	out := make([]*ClaimResult, len(claims))
	for i, result := range results {
		if cr, ok := result.(*ClaimResult); ok {
			out[i] = cr
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &ClaimResult{Line: claims[i].Line, Text: claims[i].Text, Error: eris.Wrap(err, "claim not checked")}
	}

	return out
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "read claims")
	}

	return b.ProcessClaims(ctx, claims), nil
}

// Claim is one line of a batch input file
type Claim struct {
	Line int
	Text string
}

// ReadClaimsFromFile reads claims from a file, one per line. Blank lines and
// lines starting with '#' are skipped; duplicates are checked once.
func ReadClaimsFromFile(filePath string) ([]Claim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "open file")
	}
	defer func() { _ = file.Close() }()

	var claims []Claim
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			claims = append(claims, Claim{Line: lineNo, Text: line})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan file")
	}

	return claims, nil
}
