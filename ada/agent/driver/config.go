package driver

// Config holds sampling options shared by the drivers.
type Config struct {
	//Optional. It can be different for each driver.
	Endpoint    string   `yaml:"endpoint" mapstructure:"endpoint"`
	TopK        *float32 `yaml:"topk" mapstructure:"topk"`
	TopP        *float32 `yaml:"topp" mapstructure:"topp"`
	Temperature *float32 `yaml:"temperature" mapstructure:"temperature"`
	MinP        *float32 `yaml:"minp" mapstructure:"minp"`
}
