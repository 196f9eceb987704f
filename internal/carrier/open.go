package carrier

import "os"

const osReadWrite = os.O_RDWR
