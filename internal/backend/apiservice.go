package backend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/slideframe/internal/core"
	"github.com/jo-hoe/slideframe/internal/hierarchy"
	"github.com/jo-hoe/slideframe/internal/host"
	"github.com/jo-hoe/slideframe/internal/project"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

type addImageRequest struct {
	URI  string `json:"uri" validate:"required"`
	Name string `json:"name"`
}

type updateImageRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageType   *string `json:"imageType"`
}

type updateURIsRequest struct {
	Mapping map[string]string `json:"mapping" validate:"required"`
}

type imageResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URI         string `json:"uri"`
	ImageType   string `json:"imageType"`
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	v1 := e.Group("/v1")
	v1.GET("/images", s.listImages)
	v1.POST("/images", s.addImage)
	v1.POST("/images/uris", s.updateURIs)
	v1.GET("/images/:id", s.getImage)
	v1.PUT("/images/:id", s.updateImage)
	v1.DELETE("/images/:id", s.removeImage)
	v1.GET("/images/:id/pixels", s.getPixels)
	v1.GET("/images/:id/metadata", s.getMetadata)
	v1.PUT("/images/:id/metadata", s.replaceMetadata)
	v1.DELETE("/images/:id/metadata", s.clearMetadata)
	v1.GET("/images/:id/metadata/:key", s.getMetadataValue)
	v1.PUT("/images/:id/metadata/:key", s.putMetadataValue)
	v1.DELETE("/images/:id/metadata/:key", s.deleteMetadataValue)
	v1.GET("/images/:id/properties", s.getProperties)
	v1.PUT("/images/:id/properties", s.replaceProperties)
	v1.GET("/images/:id/annotations", s.getAnnotations)
	v1.PUT("/images/:id/annotations", s.replaceAnnotations)
	v1.GET("/images/:id/annotations/overlay.png", s.getOverlay)
}

func (s *APIService) listImages(c echo.Context) error {
	entries := s.coreService.Entries()
	images := make([]imageResponse, 0, len(entries))
	for _, entry := range entries {
		response, err := imageResponseFor(entry)
		if err != nil {
			slog.Error("listImages: failed to read entry", "id", entry.ID(), "error", err)
			return httpError(err)
		}
		images = append(images, response)
	}
	return c.JSON(http.StatusOK, images)
}

func (s *APIService) addImage(c echo.Context) error {
	request := &addImageRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}
	if err := c.Validate(request); err != nil {
		return err
	}

	entry, err := s.coreService.AddImage(request.URI, request.Name)
	if err != nil {
		slog.Error("addImage: failed to add image", "uri", request.URI, "error", err)
		return httpError(err)
	}
	response, err := imageResponseFor(entry)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, response)
}

func (s *APIService) getImage(c echo.Context) error {
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	response, err := imageResponseFor(entry)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIService) updateImage(c echo.Context) error {
	request := &updateImageRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}

	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if request.Name != nil {
		if err := entry.SetImageName(*request.Name); err != nil {
			return httpError(err)
		}
	}
	if request.Description != nil {
		if err := entry.SetDescription(*request.Description); err != nil {
			return httpError(err)
		}
	}
	if request.ImageType != nil {
		imageType, err := project.ParseImageType(*request.ImageType)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown image type: "+*request.ImageType)
		}
		if err := entry.SetImageType(imageType); err != nil {
			return httpError(err)
		}
		if err := entry.Save(); err != nil {
			slog.Error("updateImage: failed to save image data", "id", entry.ID(), "error", err)
			return httpError(err)
		}
	}

	response, err := imageResponseFor(entry)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIService) removeImage(c echo.Context) error {
	if err := s.coreService.RemoveEntry(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) getPixels(c echo.Context) error {
	info, err := s.coreService.PixelInfo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *APIService) getMetadata(c echo.Context) error {
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	values, err := metadata.AsMap()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (s *APIService) replaceMetadata(c echo.Context) error {
	values := map[string]string{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	if err := metadata.Replace(values); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) clearMetadata(c echo.Context) error {
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	if err := metadata.Clear(); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) getMetadataValue(c echo.Context) error {
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	value, err := metadata.Get(c.Param("key"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"value": value})
}

func (s *APIService) putMetadataValue(c echo.Context) error {
	body := map[string]string{}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}
	value, ok := body["value"]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "request body requires a value field")
	}
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	if err := metadata.Set(c.Param("key"), value); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) deleteMetadataValue(c echo.Context) error {
	metadata, err := s.metadataFor(c)
	if err != nil {
		return httpError(err)
	}
	if err := metadata.Delete(c.Param("key")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) getProperties(c echo.Context) error {
	properties, err := s.propertiesFor(c)
	if err != nil {
		return httpError(err)
	}
	values, err := properties.AsMap()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (s *APIService) replaceProperties(c echo.Context) error {
	values := map[string]any{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	properties, err := entry.Properties()
	if err != nil {
		return httpError(err)
	}
	if err := properties.Replace(values); err != nil {
		return httpError(err)
	}
	if err := entry.Save(); err != nil {
		slog.Error("replaceProperties: failed to save image data", "id", entry.ID(), "error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) getAnnotations(c echo.Context) error {
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	h, err := entry.Hierarchy()
	if err != nil {
		return httpError(err)
	}
	data, err := h.ToGeoJSONBytes()
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (s *APIService) replaceAnnotations(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}
	// parse the full payload before touching the hierarchy so a bad
	// request cannot destroy existing annotations
	objects, err := hierarchy.ObjectsFromGeoJSONBytes(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse GeoJSON: "+err.Error())
	}
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	h, err := entry.Hierarchy()
	if err != nil {
		return httpError(err)
	}
	h.Annotations().Clear()
	h.Detections().Clear()
	h.AddObjects(objects)
	slog.Info("replaceAnnotations: hierarchy replaced", "id", entry.ID(), "objects", len(objects))
	return c.JSON(http.StatusOK, map[string]int{"loaded": len(objects)})
}

func (s *APIService) getOverlay(c echo.Context) error {
	downsample := 1.0
	if raw := c.QueryParam("downsample"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "downsample must be a number >= 1")
		}
		downsample = parsed
	}

	data, err := s.coreService.OverlayPNG(c.Request().Context(), c.Param("id"), downsample)
	if err != nil {
		slog.Error("getOverlay: failed to render overlay", "id", c.Param("id"), "error", err)
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func (s *APIService) updateURIs(c echo.Context) error {
	request := &updateURIsRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not parse request body")
	}
	if err := c.Validate(request); err != nil {
		return err
	}

	updated, err := s.coreService.UpdateURIs(request.Mapping)
	if err != nil {
		slog.Error("updateURIs: failed to rebase entries", "error", err)
		return httpError(err)
	}
	slog.Info("updateURIs: entries rebased", "updated", updated)
	return c.JSON(http.StatusOK, map[string]int{"updated": updated})
}

func (s *APIService) metadataFor(c echo.Context) (*project.MetadataMap, error) {
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return nil, err
	}
	return entry.Metadata(), nil
}

func (s *APIService) propertiesFor(c echo.Context) (*project.PropertiesMap, error) {
	entry, err := s.coreService.EntryByID(c.Param("id"))
	if err != nil {
		return nil, err
	}
	return entry.Properties()
}

func imageResponseFor(entry *project.ImageEntry) (imageResponse, error) {
	name, err := entry.ImageName()
	if err != nil {
		return imageResponse{}, err
	}
	description, err := entry.Description()
	if err != nil {
		return imageResponse{}, err
	}
	uri, err := entry.URI()
	if err != nil && !errors.Is(err, project.ErrNoServerURI) {
		return imageResponse{}, err
	}
	imageType, err := entry.ImageType()
	if err != nil {
		return imageResponse{}, err
	}
	return imageResponse{
		ID:          entry.ID(),
		Name:        name,
		Description: description,
		URI:         uri,
		ImageType:   imageType.String(),
	}, nil
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	switch {
	case errors.Is(err, host.ErrEntryNotFound),
		errors.Is(err, project.ErrKeyNotFound),
		errors.Is(err, host.ErrNoServer):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, project.ErrImageExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, project.ErrInvalidKey),
		errors.Is(err, project.ErrUnsupportedScheme),
		errors.Is(err, project.ErrRelativePath):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func readBody(c echo.Context) ([]byte, error) {
	defer func() { _ = c.Request().Body.Close() }()
	return io.ReadAll(c.Request().Body)
}
