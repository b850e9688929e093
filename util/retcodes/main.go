// Package retcodes defines the exit codes returned by the fence agents.
//
// The values are a stable interface consumed by the cluster orchestrator.
package retcodes

import (
	"fmt"
)

type (
	// T is a fence agent exit code.
	T int
)

const (
	OK                T = 0
	GenericError      T = 1
	BadArgs           T = 2
	LoginDenied       T = 3
	ConnectionLost    T = 4
	TimedOut          T = 5
	WaitingOn         T = 6
	WaitingOff        T = 7
	Status            T = 8
	StatusHMC         T = 9
	PasswordMissing   T = 10
	InvalidPrivileges T = 11
	FetchVMUUID       T = 12
)

// StatusOff is the exit code of the status action when the plug is
// confirmed off. It overloads BadArgs by orchestrator convention.
const StatusOff = BadArgs

var (
	messages = map[T]string{
		GenericError:      "Failed: Generic error",
		BadArgs:           "Failed: Bad arguments",
		LoginDenied:       "Unable to connect/login to fencing device",
		ConnectionLost:    "Connection lost",
		TimedOut:          "Connection timed out",
		WaitingOn:         "Failed: Timed out waiting to power ON",
		WaitingOff:        "Failed: Timed out waiting to power OFF",
		Status:            "Failed: Unable to obtain correct plug status or plug is not available",
		StatusHMC:         "Failed: Either unable to obtain correct plug status, partition is not available or incorrect HMC version used",
		PasswordMissing:   "Failed: You have to set login password",
		InvalidPrivileges: "Failed: The user does not have the correct privileges to do the requested action.",
		FetchVMUUID:       "Failed: Can not find VM UUID by its VM name given in the <plug> parameter.",
	}

	names = map[T]string{
		OK:                "ok",
		GenericError:      "generic error",
		BadArgs:           "bad args",
		LoginDenied:       "login denied",
		ConnectionLost:    "connection lost",
		TimedOut:          "timed out",
		WaitingOn:         "waiting on",
		WaitingOff:        "waiting off",
		Status:            "status",
		StatusHMC:         "status hmc",
		PasswordMissing:   "password missing",
		InvalidPrivileges: "invalid privileges",
		FetchVMUUID:       "fetch vm uuid",
	}
)

func (t T) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("exit code %d", int(t))
}

// Message returns the fixed user facing message associated to the code.
// The message does not depend on the backend reporting the failure.
func (t T) Message() string {
	if s, ok := messages[t]; ok {
		return s
	}
	return fmt.Sprintf("Failed: exit code %d", int(t))
}

// Int returns the code as an os.Exit argument.
func (t T) Int() int {
	return int(t)
}
