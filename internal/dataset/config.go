package dataset

type Config struct {
	File string `envconfig:"KNN_DATASET_FILE"`
}
