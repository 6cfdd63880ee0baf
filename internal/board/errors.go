package board

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var errSelfTestFailed = fmt.Errorf("board self-test failed: %w", qmcerr.Err)
