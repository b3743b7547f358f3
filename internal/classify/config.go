package classify

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"KNN_CLASSIFY_REQUEST_TIMEOUT" default:"30s"`
	MaxDataItemsLen int           `envconfig:"KNN_CLASSIFY_MAX_DATA_ITEMS_LEN" default:"100"`
}
