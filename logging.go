package imap

import "log/slog"

// LevelTrace is a custom log level below Debug, used by imapclient for
// wire-level send/receive forensics (outbound command lines, inbound
// frames), mirroring internal/config/logging.go.
const LevelTrace = slog.Level(-8)
