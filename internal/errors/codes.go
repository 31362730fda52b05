// Package errors provides the typed error codes returned by contract entry points.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session lookup
	CodeSessionNotFound      Code = "SESSION_NOT_FOUND"
	CodeSessionAlreadyExists Code = "SESSION_ALREADY_EXISTS"

	// Participants and authorization
	CodeInvalidParticipants Code = "INVALID_PARTICIPANTS"
	CodeNotParticipant      Code = "NOT_PARTICIPANT"
	CodeUnauthorized        Code = "UNAUTHORIZED"

	// Guess and commitment submission
	CodeAlreadyGuessed     Code = "ALREADY_GUESSED"
	CodeAlreadyCommitted   Code = "ALREADY_COMMITTED"
	CodeInvalidGuessLength Code = "INVALID_GUESS_LENGTH"
	CodeInvalidLetterCode  Code = "INVALID_LETTER_CODE"

	// Resolution and settlement
	CodeBothPlayersNotGuessed   Code = "BOTH_PLAYERS_NOT_GUESSED"
	CodeBothPlayersNotCommitted Code = "BOTH_PLAYERS_NOT_COMMITTED"
	CodeWinnerNotDetermined     Code = "WINNER_NOT_DETERMINED"
	CodeSessionAlreadyEnded     Code = "SESSION_ALREADY_ENDED"
	CodeSessionAlreadySettled   Code = "SESSION_ALREADY_SETTLED"
	CodeProofMissing            Code = "PROOF_MISSING"
	CodeProofRejected           Code = "PROOF_REJECTED"
	CodePublicOutputsMissing    Code = "PUBLIC_OUTPUTS_MISSING"
	CodeInvalidWinnerFlag       Code = "INVALID_WINNER_FLAG"

	// Stakes
	CodeInvalidStake  Code = "INVALID_STAKE"
	CodeStakeOverflow Code = "STAKE_OVERFLOW"

	// Configuration
	CodeNotInitialized     Code = "NOT_INITIALIZED"
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"

	// Transport and collaborators
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnknownFunction Code = "UNKNOWN_FUNCTION"
	CodeEscrowFailed    Code = "ESCROW_FAILED"
	CodeInternal        Code = "INTERNAL"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidParticipants,
		CodeInvalidGuessLength,
		CodeInvalidLetterCode,
		CodeProofMissing,
		CodePublicOutputsMissing,
		CodeInvalidWinnerFlag,
		CodeInvalidStake,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeAlreadyGuessed,
		CodeAlreadyCommitted,
		CodeBothPlayersNotGuessed,
		CodeBothPlayersNotCommitted,
		CodeWinnerNotDetermined,
		CodeSessionAlreadyEnded,
		CodeSessionAlreadySettled,
		CodeProofRejected,
		CodeStakeOverflow,
		CodeNotInitialized:
		return codes.FailedPrecondition

	case CodeSessionNotFound:
		return codes.NotFound

	case CodeSessionAlreadyExists,
		CodeAlreadyInitialized:
		return codes.AlreadyExists

	case CodeNotParticipant,
		CodeUnauthorized:
		return codes.PermissionDenied

	case CodeUnknownFunction:
		return codes.Unimplemented

	case CodeEscrowFailed:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
