package command

// Result reports the outcome of one executed command. Expected failures
// (unknown character, missing resources, duplicate conditions) are
// reported here rather than as errors so a batch keeps going when one
// command fails.
type Result struct {
	Success     bool           `json:"success"`
	Tag         Tag            `json:"command_type"`
	CharacterID string         `json:"character_id"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
}

// BatchResult aggregates one executed batch. Total always equals
// len(Results) and Succeeded+Failed.
type BatchResult struct {
	Total     int      `json:"total_commands"`
	Succeeded int      `json:"successful"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// AllSucceeded reports whether no command in the batch failed.
func (b BatchResult) AllSucceeded() bool {
	return b.Failed == 0
}

// Failures returns only the failed results.
func (b BatchResult) Failures() []Result {
	var failures []Result
	for _, result := range b.Results {
		if !result.Success {
			failures = append(failures, result)
		}
	}
	return failures
}

// Successes returns only the successful results.
func (b BatchResult) Successes() []Result {
	var successes []Result
	for _, result := range b.Results {
		if result.Success {
			successes = append(successes, result)
		}
	}
	return successes
}

func newBatchResult(results []Result) BatchResult {
	batch := BatchResult{Total: len(results), Results: results}
	for _, result := range results {
		if result.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func ok(cmd Command, message string, details map[string]any) Result {
	return Result{
		Success:     true,
		Tag:         cmd.Tag(),
		CharacterID: cmd.CharacterID(),
		Message:     message,
		Details:     details,
	}
}

func fail(cmd Command, message string) Result {
	return Result{
		Tag:         cmd.Tag(),
		CharacterID: cmd.CharacterID(),
		Message:     message,
	}
}
