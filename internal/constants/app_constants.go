// Package constants centralizes application-level constants.
package constants

const (
	// DefaultMatchLimit is the top-K cut applied to every match query.
	DefaultMatchLimit = 3

	// DefaultRecallPoolSize is how many candidates are recalled from the
	// vector store and scored before the top-K cut.
	DefaultRecallPoolSize = 100

	// DefaultScoreCap caps the normalized match score.
	DefaultScoreCap = 90

	// DefaultTopSkills is the N of the overview top-N skill ranking.
	DefaultTopSkills = 10

	// DefaultOverviewScanLimit bounds the overview full-corpus scan.
	DefaultOverviewScanLimit = 500

	// DefaultVectorDimension matches the text-embedding-v3 output size.
	DefaultVectorDimension = 1024

	// ConsultantCollection is the default vector store collection name.
	ConsultantCollection = "consultants"
)
