package s3_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"giving-hand-api-server/internal/s3"
)

type fakeS3 struct {
	input *awss3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &awss3.PutObjectOutput{}, f.err
}

func TestUploadFile(t *testing.T) {
	fake := &fakeS3{}
	u := &s3.Uploader{Client: fake, Bucket: "proofs-bucket", Region: "eu-central-1"}

	url, err := u.UploadFile(context.Background(), strings.NewReader("jpeg bytes"), "proofs/MT-1/PRF-1.jpg", "")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://proofs-bucket.s3.eu-central-1.amazonaws.com/proofs/MT-1/PRF-1.jpg" {
		t.Errorf("url = %s", url)
	}
	if aws.ToString(fake.input.Bucket) != "proofs-bucket" || aws.ToString(fake.input.ContentType) != "image/jpeg" {
		t.Errorf("input = %+v", fake.input)
	}
	if fake.body != "jpeg bytes" {
		t.Errorf("body = %q", fake.body)
	}

	u.CloudFrontDomain = "cdn.example.org"
	if got := u.URL("k.png"); got != "https://cdn.example.org/k.png" {
		t.Errorf("cloudfront url = %s", got)
	}
}

func TestUploadFile_Error(t *testing.T) {
	u := &s3.Uploader{Client: &fakeS3{err: errors.New("denied")}, Bucket: "b", Region: "r"}
	if _, err := u.UploadFile(context.Background(), strings.NewReader("x"), "k", "image/png"); err == nil {
		t.Error("expected an error")
	}
}

func TestProofKey(t *testing.T) {
	for in, want := range map[string]string{
		"photo.PNG": "proofs/MT-1/PRF-1.png",
		"photo":     "proofs/MT-1/PRF-1.jpg",
	} {
		if got := s3.ProofKey("MT-1", "PRF-1", in); got != want {
			t.Errorf("ProofKey(%q) = %s, want %s", in, got, want)
		}
	}
}
