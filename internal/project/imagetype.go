package project

import "fmt"

// ImageType classifies an image entry. Values carry the host application's
// display names.
type ImageType string

const (
	// Brightfield image with hematoxylin and DAB stains.
	ImageTypeBrightfieldHDAB ImageType = "Brightfield (H-DAB)"
	// Brightfield image with hematoxylin and eosin stains.
	ImageTypeBrightfieldHE ImageType = "Brightfield (H&E)"
	// Brightfield image with any stains.
	ImageTypeBrightfieldOther ImageType = "Brightfield (other)"
	// Fluorescence image.
	ImageTypeFluorescence ImageType = "Fluorescence"
	// Other image type, not covered by any of the alternatives above.
	ImageTypeOther ImageType = "Other"
	// Image type has not been set.
	ImageTypeUnset ImageType = "Not set"
)

var imageTypes = []ImageType{
	ImageTypeBrightfieldHDAB,
	ImageTypeBrightfieldHE,
	ImageTypeBrightfieldOther,
	ImageTypeFluorescence,
	ImageTypeOther,
	ImageTypeUnset,
}

// ParseImageType converts an image type display name into an ImageType.
func ParseImageType(name string) (ImageType, error) {
	for _, imageType := range imageTypes {
		if string(imageType) == name {
			return imageType, nil
		}
	}
	return "", fmt.Errorf("unsupported image type %q", name)
}

// IsValid reports whether the image type is one of the known values.
func (t ImageType) IsValid() bool {
	_, err := ParseImageType(string(t))
	return err == nil
}

func (t ImageType) String() string {
	return string(t)
}
