// Package media выдает ссылки для загрузки изображений рецептов в S3 и удаляет их.
package media

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
)

const uploadTTL = 15 * time.Minute

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL - адрес, по которому объекты бакета доступны клиентам
	PublicURL string
}

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Upload struct {
	UploadURL string
	ImageURL  string
	ExpiresAt time.Time
}

type S3Images struct {
	bucket    string
	publicURL string
	presign   presigner
	objects   objectDeleter
	now       func() time.Time
}

func NewS3Images(ctx context.Context, cfg S3Config) (*S3Images, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Images(cfg.Bucket, publicURL, s3.NewPresignClient(client), client), nil
}

func newS3Images(bucket, publicURL string, p presigner, d objectDeleter) *S3Images {
	return &S3Images{
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		presign:   p,
		objects:   d,
		now:       time.Now,
	}
}

// PresignUpload выдает одноразовую ссылку PUT и будущий публичный адрес изображения
func (s *S3Images) PresignUpload(ctx context.Context, actor *policy.Actor, contentType string) (*Upload, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, apperror.InvalidInput("unsupported image type: " + contentType)
	}

	key := ownerPrefix(actor.ID) + uuid.NewString() + ext
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadTTL))
	if err != nil {
		return nil, apperror.Wrap(err, "failed to prepare image upload")
	}

	return &Upload{
		UploadURL: req.URL,
		ImageURL:  s.publicURL + "/" + key,
		ExpiresAt: s.now().Add(uploadTTL),
	}, nil
}

// CheckImageURL пропускает внешние ссылки, а ссылки в наш бакет - только из каталога владельца
func (s *S3Images) CheckImageURL(ownerID, imageURL string) error {
	if imageURL == "" {
		return nil
	}
	key, ok := s.objectKey(imageURL)
	if !ok {
		return nil
	}
	if !ownedBy(ownerID, key) {
		return apperror.InvalidInput("imageUrl must point to an image uploaded by the recipe author")
	}
	return nil
}

// RemoveImage удаляет объект из каталога владельца; внешние и чужие ссылки игнорируются
func (s *S3Images) RemoveImage(ctx context.Context, ownerID, imageURL string) error {
	key, ok := s.objectKey(imageURL)
	if !ok {
		return nil
	}
	if !ownedBy(ownerID, key) {
		log.Printf("media: ключ %s не принадлежит автору %s, удаление пропущено", key, ownerID)
		return nil
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Images) objectKey(imageURL string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, prefix)
	return key, key != ""
}

func ownerPrefix(ownerID string) string {
	return "recipes/" + ownerID + "/"
}

// ownedBy допускает только ключ вида recipes/<ownerID>/<имя> без обходов каталога
func ownedBy(ownerID, key string) bool {
	if ownerID == "" || strings.ContainsAny(ownerID, "/%") {
		return false
	}
	name := strings.TrimPrefix(key, ownerPrefix(ownerID))
	if name == key || name == "" || strings.ContainsAny(name, "/%") {
		return false
	}
	return path.Clean(key) == key
}
