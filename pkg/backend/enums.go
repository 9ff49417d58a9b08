package backend

// Role identifies the operation a transaction performs.
type Role string

const (
	RoleResolve          Role = "resolve"
	RoleSearchName       Role = "search-name"
	RoleSearchDetails    Role = "search-details"
	RoleSearchGroup      Role = "search-group"
	RoleSearchFile       Role = "search-file"
	RoleGetDepends       Role = "get-depends"
	RoleGetRequires      Role = "get-requires"
	RoleGetDetails       Role = "get-details"
	RoleGetFiles         Role = "get-files"
	RoleGetUpdates       Role = "get-updates"
	RoleGetPackages      Role = "get-packages"
	RoleInstallPackages  Role = "install-packages"
	RoleRemovePackages   Role = "remove-packages"
	RoleUpdatePackages   Role = "update-packages"
	RoleUpdateSystem     Role = "update-system"
	RoleRefreshCache     Role = "refresh-cache"
	RoleInstallFiles     Role = "install-files"
	RoleInstallSignature Role = "install-signature"
	RoleGetRepoList      Role = "get-repo-list"
	RoleRepoEnable       Role = "repo-enable"
	RoleRepoSetData      Role = "repo-set-data"
	RoleWhatProvides     Role = "what-provides"
	RoleDownloadPackages Role = "download-packages"
	RoleGetUpdateDetail  Role = "get-update-detail"
	RoleAcceptEula       Role = "accept-eula"
)

// AllRoles lists every role in a stable order.
var AllRoles = []Role{
	RoleResolve, RoleSearchName, RoleSearchDetails, RoleSearchGroup, RoleSearchFile,
	RoleGetDepends, RoleGetRequires, RoleGetDetails, RoleGetFiles, RoleGetUpdates,
	RoleGetPackages, RoleInstallPackages, RoleRemovePackages, RoleUpdatePackages,
	RoleUpdateSystem, RoleRefreshCache, RoleInstallFiles, RoleInstallSignature,
	RoleGetRepoList, RoleRepoEnable, RoleRepoSetData, RoleWhatProvides,
	RoleDownloadPackages, RoleGetUpdateDetail, RoleAcceptEula,
}

// Mutating reports whether the role changes system package state. Mutating
// transactions never run concurrently with each other.
func (r Role) Mutating() bool {
	switch r {
	case RoleInstallPackages, RoleRemovePackages, RoleUpdatePackages, RoleUpdateSystem,
		RoleRefreshCache, RoleInstallFiles, RoleInstallSignature, RoleAcceptEula,
		RoleRepoEnable, RoleRepoSetData:
		return true
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Status is the sub-status of a running transaction.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusWait         Status = "wait"
	StatusSetup        Status = "setup"
	StatusQuery        Status = "query"
	StatusDownload     Status = "download"
	StatusInstall      Status = "install"
	StatusUpdate       Status = "update"
	StatusRemove       Status = "remove"
	StatusCleanup      Status = "cleanup"
	StatusRequest      Status = "request"
	StatusRefreshCache Status = "refresh-cache"
	StatusFinished     Status = "finished"
)

// Info classifies a package event.
type Info string

const (
	InfoUnknown     Info = "unknown"
	InfoInstalled   Info = "installed"
	InfoAvailable   Info = "available"
	InfoInstalling  Info = "installing"
	InfoUpdating    Info = "updating"
	InfoRemoving    Info = "removing"
	InfoDownloading Info = "downloading"
	InfoBlocked     Info = "blocked"
	InfoSecurity    Info = "security"
	InfoNormal      Info = "normal"
	InfoCleanup     Info = "cleanup"
)

// ErrorKind is the error classification carried by error events.
type ErrorKind string

const (
	ErrorNetworkUnavailable   ErrorKind = "network-unavailable"
	ErrorPackageNotFound      ErrorKind = "package-not-found"
	ErrorPackageNotInstalled  ErrorKind = "package-not-installed"
	ErrorAlreadyInstalled     ErrorKind = "package-already-installed"
	ErrorInvalidPackageID     ErrorKind = "invalid-package-id"
	ErrorGroupNotFound        ErrorKind = "group-not-found"
	ErrorRepoNotFound         ErrorKind = "repo-not-found"
	ErrorFileNotFound         ErrorKind = "file-not-found"
	ErrorMimeTypeNotSupported ErrorKind = "mime-type-not-supported"
	ErrorDepResolutionFailed  ErrorKind = "dep-resolution-failed"
	ErrorGPGFailure           ErrorKind = "gpg-failure"
	ErrorNoLicenseAgreement   ErrorKind = "no-license-agreement"
	ErrorTransactionCancelled ErrorKind = "transaction-cancelled"
	ErrorFailedInitialization ErrorKind = "failed-initialization"
	ErrorInternal             ErrorKind = "internal"
)

// Exit describes how a transaction ended.
type Exit string

const (
	ExitSuccess   Exit = "success"
	ExitFailed    Exit = "failed"
	ExitCancelled Exit = "cancelled"
)

// Restart is the kind of restart required after a transaction.
type Restart string

const (
	RestartNone        Restart = "none"
	RestartApplication Restart = "application"
	RestartSession     Restart = "session"
	RestartSystem      Restart = "system"
)

// SigType is the signature scheme of a repository key.
type SigType string

const (
	SigTypeGPG SigType = "gpg"
)

// Provides narrows a what-provides query.
type Provides string

const (
	ProvidesAny      Provides = "any"
	ProvidesCodec    Provides = "codec"
	ProvidesMimetype Provides = "mimetype"
	ProvidesFont     Provides = "font"
	ProvidesModalias Provides = "modalias"
)

// UpdateState is the stability of an update.
type UpdateState string

const (
	UpdateStateUnknown  UpdateState = "unknown"
	UpdateStateStable   UpdateState = "stable"
	UpdateStateUnstable UpdateState = "unstable"
	UpdateStateTesting  UpdateState = "testing"
)

// PercentageUnknown marks progress that cannot be estimated.
const PercentageUnknown = -1
