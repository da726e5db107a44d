package testutil

import (
	"os"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/evergreen-ci/utility"
	"github.com/grimoirelab/credman/awsutil"
)

// runtimeNamespace is a random string generated during testing runtime that
// acts as a namespace for this particular runtime's tests. It is used to
// namespace AWS secrets so that tests running concurrently on different
// machines do not interfere with each other's resource cleanup.
var runtimeNamespace = utility.RandomString()

// ValidIntegrationAWSOptions returns valid options to create an AWS client
// that can make actual requests to AWS for integration testing. Credentials
// come from the SDK's default chain; the region comes from the standard
// environment variable.
func ValidIntegrationAWSOptions() awsutil.ClientOptions {
	return *awsutil.NewClientOptions().SetRegion(os.Getenv("AWS_REGION"))
}

// ValidNonIntegrationAWSOptions returns valid options to create an AWS
// client that doesn't make any actual requests to AWS.
func ValidNonIntegrationAWSOptions() awsutil.ClientOptions {
	return *awsutil.NewClientOptions().
		SetCredentialsProvider(credentials.NewStaticCredentialsProvider("", "", "")).
		SetRegion("us-east-1")
}
