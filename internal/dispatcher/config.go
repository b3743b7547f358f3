package dispatcher

type Config struct {
	MaxItemsStored int `envconfig:"KNN_MAX_ITEMS_STORED" default:"0"`
}
