package cli

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Recompute map object HashIds in Yaz0 compressed BYML map units"
	MsgRemapShort   = "Remap HashIds of every map unit under a project"
	MsgRestoreShort = "Move backups back over remapped map units"
	MsgHistoryShort = "List past runs, or show one run's files"
	MsgConfigShort  = "Inspect the effective configuration"
	MsgShowShort    = "Print the merged configuration"
	MsgVersionShort = "Print version information"

	// Status messages
	MsgNoUnits        = "No map units under %s match %s"
	MsgNoBackups      = "No backups to restore under %s"
	MsgVersionFormat  = "hypostasis %s (commit %s, built %s)\n"
	MsgCommandStarted = "Command started"

	// Error messages
	MsgErrNoRefs       = "no reference hash list: pass --refs or set remap.reference_hashes"
	MsgErrLoadConfig   = "failed to load configuration: %w"
	MsgErrOpenLedger   = "failed to open ledger: %w"
	MsgErrDiscover     = "failed to find map units: %w"
	MsgErrReadLedger   = "failed to read ledger: %w"
	MsgErrUnknownRun   = "no run with id %s"
	MsgErrLedgerOff    = "the ledger is disabled (ledger.enabled = false)"
	MsgErrFilesFailed  = "%d of %d files failed"
	MsgErrRestoreInput = "restore needs a project directory or --run"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v info, -vv debug, -vvv trace)"
	MsgFlagConfig    = "Read this config file instead of the user config"
	MsgFlagFormat    = "Output format: auto, term, text, json or yaml"
	MsgFlagRefs      = "File of comma-separated decimal reference HashIds"
	MsgFlagWorkers   = "Number of files processed at once (0 = one per CPU)"
	MsgFlagBackupExt = "Extension appended to a map unit's path to name its backup"
	MsgFlagPattern   = "Glob selecting map units relative to the project"
	MsgFlagForce     = "Process files the ledger shows as already remapped"
	MsgFlagDryRun    = "Compute remap tables without writing anything"
	MsgFlagKeepOwnID = "Leave each remapped object's own HashId unchanged"
	MsgFlagNoLedger  = "Do not read or record run history"
	MsgFlagLedger    = "Path of the ledger database"
	MsgFlagLogFile   = "Log file path (- disables the log file)"
	MsgFlagPairs     = "List every old -> new HashId pair"
	MsgFlagRun       = "Restore the files remapped by this run"
	MsgFlagLimit     = "Show at most this many runs (0 = all)"
	MsgFlagStats     = "Summarize what the ledger holds"
	MsgFlagShowFmt   = "Config format: toml or yaml"
)
