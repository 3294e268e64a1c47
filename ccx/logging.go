/*
NAME
  logging.go

DESCRIPTION
  logging.go builds the ausocean/utils logging.Logger this module uses
  throughout, backed by a size-based rotating file via
  gopkg.in/natefinch/lumberjack.v2, the way a long-running orchestrator
  process needs its logs capped rather than growing unbounded.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ccx

import (
	"io"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotatingLogger returns a logging.Logger that writes to path,
// rotating it once it exceeds maxSizeMB megabytes and keeping up to
// maxBackups old rotations. level is one of the logging.Debug/Info/
// Warning/Error/Fatal constants.
func NewRotatingLogger(path string, maxSizeMB, maxBackups int, level int8) logging.Logger {
	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return logging.New(level, w, true)
}
