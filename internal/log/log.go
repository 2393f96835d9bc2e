// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/staranto/petcache/internal/config"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// PETCACHE_LOG env variable.
func InitLogger() {
	level := "ERROR"
	if e, err := config.LoadEnv(); err == nil && e.Log != "" {
		level = strings.ToUpper(e.Log)
	}
	log.SetHandler(NewCustomHandler(os.Stderr))

	l, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.ErrorLevel)
		log.Warnf("unknown PETCACHE_LOG level %q, using error", level)
		return
	}
	log.SetLevel(l)
}

// CustomHandler formats log messages as "timestamp L message key=value".
type CustomHandler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields.Get(k))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
