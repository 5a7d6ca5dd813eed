package analysis

// libcFunctions lists well-known C library symbols. Calls to these are
// resolved by the system headers and libc at link time, so they are never
// reported as undeclared even when no prototype is visible in the scanned
// set (common when a sweep covers sources without system include paths).
var libcFunctions = map[string]struct{}{
	// stdio
	"printf": {}, "fprintf": {}, "sprintf": {}, "snprintf": {},
	"scanf": {}, "fscanf": {}, "sscanf": {},
	"puts": {}, "fputs": {}, "gets": {}, "fgets": {},
	"putchar": {}, "getchar": {}, "putc": {}, "getc": {}, "fputc": {}, "fgetc": {},
	"fopen": {}, "freopen": {}, "fclose": {}, "fflush": {},
	"fread": {}, "fwrite": {}, "fseek": {}, "ftell": {}, "rewind": {},
	"feof": {}, "ferror": {}, "clearerr": {}, "perror": {},
	"remove": {}, "rename": {}, "tmpfile": {}, "setvbuf": {}, "setbuf": {},

	// stdlib
	"malloc": {}, "calloc": {}, "realloc": {}, "free": {},
	"exit": {}, "abort": {}, "atexit": {}, "_Exit": {},
	"atoi": {}, "atol": {}, "atoll": {}, "atof": {},
	"strtol": {}, "strtoul": {}, "strtoll": {}, "strtoull": {}, "strtod": {}, "strtof": {},
	"rand": {}, "srand": {}, "abs": {}, "labs": {}, "llabs": {},
	"div": {}, "ldiv": {}, "qsort": {}, "bsearch": {},
	"getenv": {}, "setenv": {}, "unsetenv": {}, "system": {},

	// string
	"strlen": {}, "strcpy": {}, "strncpy": {}, "strcat": {}, "strncat": {},
	"strcmp": {}, "strncmp": {}, "strcasecmp": {}, "strncasecmp": {},
	"strchr": {}, "strrchr": {}, "strstr": {}, "strtok": {}, "strtok_r": {},
	"strdup": {}, "strndup": {}, "strerror": {}, "strspn": {}, "strcspn": {}, "strpbrk": {},
	"memcpy": {}, "memmove": {}, "memset": {}, "memcmp": {}, "memchr": {},

	// ctype
	"isalpha": {}, "isdigit": {}, "isalnum": {}, "isspace": {},
	"isupper": {}, "islower": {}, "ispunct": {}, "isprint": {}, "iscntrl": {}, "isxdigit": {},
	"toupper": {}, "tolower": {},

	// math
	"sqrt": {}, "pow": {}, "exp": {}, "log": {}, "log2": {}, "log10": {},
	"sin": {}, "cos": {}, "tan": {}, "asin": {}, "acos": {}, "atan": {}, "atan2": {},
	"floor": {}, "ceil": {}, "round": {}, "trunc": {}, "fabs": {}, "fmod": {},

	// time
	"time": {}, "clock": {}, "difftime": {}, "mktime": {},
	"localtime": {}, "gmtime": {}, "strftime": {}, "asctime": {}, "ctime": {},

	// assert / setjmp / signal
	"assert": {}, "setjmp": {}, "longjmp": {}, "signal": {}, "raise": {},

	// common POSIX
	"open": {}, "close": {}, "read": {}, "write": {}, "lseek": {},
	"stat": {}, "fstat": {}, "unlink": {}, "mkdir": {}, "rmdir": {},
	"fork": {}, "execve": {}, "waitpid": {}, "getpid": {}, "sleep": {}, "usleep": {},
	"pthread_create": {}, "pthread_join": {}, "pthread_mutex_lock": {}, "pthread_mutex_unlock": {},
	"pthread_mutex_init": {}, "pthread_mutex_destroy": {}, "pthread_cond_wait": {}, "pthread_cond_signal": {},
}

// IsLibcFunction checks if a name is a well-known C library symbol.
func IsLibcFunction(name string) bool {
	_, ok := libcFunctions[name]
	return ok
}
