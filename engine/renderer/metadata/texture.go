package metadata

type TextureID uint32

type TextureFlag uint8

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
)

/**
 * @brief Represents a backend texture.
 */
type Texture struct {
	/** @brief The backend texture identifier. */
	ID TextureID
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlag
	/** @brief The texture Name. */
	Name string
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Point sampler filtering. */
	TextureFilterModeNearest TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear
)

func (f TextureFilter) String() string {
	if f == TextureFilterModeLinear {
		return "linear"
	}
	return "nearest"
}

/** @brief Inputs of the fixed-function texture combine stage. */
type TextureCombinerSource int

const (
	TextureCombinerSourcePrimaryColor TextureCombinerSource = iota
	TextureCombinerSourceTexture0
)

type TextureCombinerOp int

const (
	TextureCombinerReplace TextureCombinerOp = iota
	TextureCombinerModulate
)

// TextureCombiner describes how the fragment colour is produced from the
// interpolated vertex colour and the sampled texture.
type TextureCombiner struct {
	Source0 TextureCombinerSource
	Source1 TextureCombinerSource
	Op      TextureCombinerOp
}

// ModulateTextureCombiner multiplies texture unit 0 with the lit vertex colour.
func ModulateTextureCombiner() TextureCombiner {
	return TextureCombiner{
		Source0: TextureCombinerSourceTexture0,
		Source1: TextureCombinerSourcePrimaryColor,
		Op:      TextureCombinerModulate,
	}
}
