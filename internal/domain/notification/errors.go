package notification

import (
	"fmt"

	"homefinder/internal/domain"
)

var ErrNotificationNotFound = fmt.Errorf("%w: notification", domain.ErrNotFound)
