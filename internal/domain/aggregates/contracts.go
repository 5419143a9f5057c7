package aggregates

import "fmt"

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means write methods open and commit their own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	// WriteTxJoinsCaller means write methods join a transaction supplied by the caller.
	WriteTxJoinsCaller WriteTxOwnership = "caller_owned"
)

type ReadPolicy string

const (
	// ReadPolicyInvariantScoped allows only the reads a write needs to check its invariants.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries leaves read models to table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Contract describes the policy an aggregate implementation promises.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Validate rejects contracts missing a name or a known policy.
func (c Contract) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("aggregate contract: name required")
	}
	switch c.WriteTxOwnership {
	case WriteTxOwnedByAggregate, WriteTxJoinsCaller:
	default:
		return fmt.Errorf("aggregate contract %s: unknown tx ownership %q", c.Name, c.WriteTxOwnership)
	}
	switch c.ReadPolicy {
	case ReadPolicyInvariantScoped, ReadPolicyTableRepoQueries:
	default:
		return fmt.Errorf("aggregate contract %s: unknown read policy %q", c.Name, c.ReadPolicy)
	}
	return nil
}

// Contracts lists every aggregate contract of the domain.
func Contracts() []Contract {
	return []Contract{
		ProgressionAggregateContract,
		CertificateAggregateContract,
	}
}
