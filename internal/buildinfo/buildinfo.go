package buildinfo

const Graffiti = " _  __ _   _ _   _ \n| |/ /| \\ | | \\ | |\n| ' / |  \\| |  \\| |\n| . \\ | |\\  | |\\  |\n|_|\\_\\|_| \\_|_| \\_|\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "MIXKNN"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

// String renders the banner line printed at startup.
func (b buildinfo) String() string {
	return b.Name() + ": " + b.Time() + ", " + b.Tag()
}

var Info buildinfo
