package engine

import (
	"fmt"
	"os"
	"time"
)

// Record holds the data points logged for one evaluation.
type Record struct {
	Timestamp time.Time
	Position  string
	Move      string
	Score     float64
	States    int64
	Duration  time.Duration
}

// Logger writes evaluation records to a file from a background goroutine so
// logging never blocks the search.
type Logger struct {
	file  *os.File
	queue chan Record
	done  chan bool
}

// NewLogger creates a logger appending to filename.
func NewLogger(filename string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		file:  file,
		queue: make(chan Record, 100), // buffer up to 100 evaluations
		done:  make(chan bool),
	}

	go l.writer()

	return l, nil
}

// Record sends an entry to the writer queue. Safe on a nil logger.
func (l *Logger) Record(r Record) {
	if l == nil {
		return
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	select {
	case l.queue <- r:
		// Queued successfully
	default:
		// Channel full, drop the record to avoid blocking the engine
		fmt.Println("Warning: evaluation log queue full, dropping record")
	}
}

// Close closes the logger channel and file. Safe on a nil logger.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	close(l.queue)
	<-l.done // wait for the writer to finish
	l.file.Close()
}

// writer is the background goroutine that writes to the file.
func (l *Logger) writer() {
	for r := range l.queue {
		line := fmt.Sprintf("%s | M: %-4s | Sc: %-8.2f | St: %-8d | T: %-8s | Pos: %s\n",
			r.Timestamp.Format("01-02 15:04:05"),
			r.Move,
			r.Score,
			r.States,
			r.Duration.Round(10*time.Millisecond),
			r.Position,
		)
		l.file.WriteString(line)
	}
	l.done <- true
}
