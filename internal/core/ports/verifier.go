package ports

// Verifier defines the interface for verifying file existence.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_verifier.go -package=mocks -source=verifier.go
type Verifier interface {
	// VerifyOutputs checks that every path exists and returns the ones that do not.
	VerifyOutputs(paths []string) (missing []string, err error)
}
