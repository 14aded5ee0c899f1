// Package sourceconfig loads the data source configuration from S3.
package sourceconfig

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/UKHomeOffice/addtomanifest/pkg/source"
)

// ObjectGetter is an abstraction (helpful for testing)
type ObjectGetter interface {
	GetObjectWithContext(aws.Context, *s3.GetObjectInput, ...request.Option) (*s3.GetObjectOutput, error)
}

// Loader reads the configuration document from one bucket and key
type Loader struct {
	s3     ObjectGetter
	bucket string
	key    string
}

// NewLoader returns a new loader
func NewLoader(g ObjectGetter, bucket, key string) *Loader {
	return &Loader{s3: g, bucket: bucket, key: key}
}

// Location returns the S3 location of the configuration document
func (l *Loader) Location() string {
	return fmt.Sprintf("s3://%v/%v", l.bucket, l.key)
}

// Load fetches and parses the source definitions
func (l *Loader) Load(ctx context.Context) ([]source.Definition, error) {

	input := &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	}

	out, err := l.s3.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, source.NewConfigurationError(fmt.Sprintf("failed to get %v", l.Location()), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, source.NewConfigurationError(fmt.Sprintf("failed to read %v", l.Location()), err)
	}

	return source.Parse(b)
}
